package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Path to the SQLite database file
	DBPath string

	// Optional directory of field definition YAML files used to seed an
	// empty database
	FieldsDir string

	// JSON Schema the field definition files are validated against
	SchemaPath string

	// Debug switches logging to development output
	Debug bool
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}

	if c.FieldsDir != "" && c.SchemaPath == "" {
		return fmt.Errorf("schema path required when a fields directory is set")
	}

	return nil
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		DBPath:     "irrigation.db",
		SchemaPath: "schemas/fields_v1.json",
	}
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults where unset
func Load() Config {
	// Missing .env is fine; env vars still apply
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v := os.Getenv("IRRIPLAN_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("IRRIPLAN_FIELDS_DIR"); v != "" {
		cfg.FieldsDir = v
	}
	if v := os.Getenv("IRRIPLAN_SCHEMA_PATH"); v != "" {
		cfg.SchemaPath = v
	}
	if v := os.Getenv("IRRIPLAN_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	return cfg
}
