package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/table-reservation/models"
	"gopkg.in/yaml.v3"
)

type tablesFile struct {
	Tables []models.Table `yaml:"tables" validate:"required,min=1,unique=ID,dive"`
}

// LoadTables reads the table inventory from a YAML file of the form
//
//	tables:
//	  - {id: 1, name: "Window", capacity: 2, zone: hall}
func LoadTables(path string) ([]models.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}

	return ParseTables(raw)
}

func ParseTables(raw []byte) ([]models.Table, error) {
	var file tablesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tables file: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid tables file: %w", err)
	}

	return file.Tables, nil
}
