package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DBPath != "irrigation.db" {
		t.Errorf("expected default db path irrigation.db, got %s", cfg.DBPath)
	}
	if cfg.SchemaPath != "schemas/fields_v1.json" {
		t.Errorf("expected default schema path, got %s", cfg.SchemaPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing db path")
	}

	cfg = Config{DBPath: "test.db", FieldsDir: "fields"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when fields dir is set without a schema path")
	}

	cfg.SchemaPath = "schemas/fields_v1.json"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IRRIPLAN_DB_PATH", "/tmp/env.db")
	t.Setenv("IRRIPLAN_FIELDS_DIR", "/tmp/fields")
	t.Setenv("IRRIPLAN_SCHEMA_PATH", "/tmp/schema.json")
	t.Setenv("IRRIPLAN_DEBUG", "true")

	cfg := Load()

	if cfg.DBPath != "/tmp/env.db" {
		t.Errorf("expected db path from env, got %s", cfg.DBPath)
	}
	if cfg.FieldsDir != "/tmp/fields" {
		t.Errorf("expected fields dir from env, got %s", cfg.FieldsDir)
	}
	if cfg.SchemaPath != "/tmp/schema.json" {
		t.Errorf("expected schema path from env, got %s", cfg.SchemaPath)
	}
	if !cfg.Debug {
		t.Error("expected debug to be enabled")
	}
}
