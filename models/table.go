package models

type Zone string

const (
	ZoneHall    Zone = "hall"
	ZoneVeranda Zone = "veranda"
)

// Table is a physical table of the restaurant. Rows are seeded from the
// inventory file and are never edited through the API.
type Table struct {
	ID       uint   `gorm:"primaryKey;autoIncrement:false" json:"id" yaml:"id" validate:"required"`
	Name     string `gorm:"type:varchar(100);not null" json:"name" yaml:"name" validate:"required"`
	Capacity int    `gorm:"not null" json:"capacity" yaml:"capacity" validate:"gt=0"`
	Zone     Zone   `gorm:"type:varchar(50);not null;default:'hall'" json:"zone" yaml:"zone" validate:"required"`
}
