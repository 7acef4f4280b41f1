package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is built once at startup and handed to the constructors that need it.
type Config struct {
	Port     string
	GinMode  string
	LogLevel logrus.Level

	DBDriver string
	DBDSN    string

	Timezone           *time.Location
	SlotDuration       time.Duration
	MaxAlternatives    int
	SearchRadius       time.Duration
	DefaultGuests      int
	TablesFile         string
	RateLimitPerSecond int
	CORSAllowedOrigins []string

	JWTSecret     string
	AdminEmail    string
	AdminPassword string
}

// SearchRadiusSteps converts the alternative search radius into slot steps.
func (c *Config) SearchRadiusSteps() int {
	return int(c.SearchRadius / c.SlotDuration)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBDSN:         getEnv("DB_DSN", "reservations.db"),
		TablesFile:    getEnv("TABLES_FILE", "tables.yaml"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.Timezone, err = time.LoadLocation(getEnv("RESTAURANT_TIMEZONE", "Europe/Moscow"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESTAURANT_TIMEZONE: %w", err)
	}

	slotMinutes, err := getEnvInt("SLOT_DURATION_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg.SlotDuration = time.Duration(slotMinutes) * time.Minute

	radiusHours, err := getEnvInt("SEARCH_RADIUS_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.SearchRadius = time.Duration(radiusHours) * time.Hour

	if cfg.MaxAlternatives, err = getEnvInt("MAX_ALTERNATIVES", 5); err != nil {
		return nil, err
	}
	if cfg.DefaultGuests, err = getEnvInt("DEFAULT_GUESTS", 2); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerSecond, err = getEnvInt("RATE_LIMIT_PER_SECOND", 50); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Timezone == nil {
		return fmt.Errorf("timezone is required")
	}
	if c.SlotDuration <= 0 || (24*time.Hour)%c.SlotDuration != 0 {
		return fmt.Errorf("slot duration %s must be positive and divide 24h", c.SlotDuration)
	}
	if c.SearchRadius < c.SlotDuration {
		return fmt.Errorf("search radius %s is shorter than one slot", c.SearchRadius)
	}
	if c.MaxAlternatives <= 0 {
		return fmt.Errorf("MAX_ALTERNATIVES must be positive")
	}
	if c.DefaultGuests <= 0 {
		return fmt.Errorf("DEFAULT_GUESTS must be positive")
	}
	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND must be positive")
	}
	switch c.DBDriver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
