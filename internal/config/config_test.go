package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Database.Kind != "memory" {
		t.Errorf("Database.Kind = %q, want memory", cfg.Database.Kind)
	}
	if cfg.Backend.Kind != "local" {
		t.Errorf("Backend.Kind = %q, want local", cfg.Backend.Kind)
	}
	if cfg.Server.Addr == "" || cfg.Server.Name == "" {
		t.Error("server addr/name should have defaults")
	}
}

func TestLoadNoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":12445"
  name: "CUSTOM"
  max_message_size: "32MB"
logging:
  level: debug
database:
  kind: sql
  driver: sqlite
  sqlite_path: /tmp/test.db
backend:
  kind: local
  local:
    base_path: /tmp/shares
`
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":12445" {
		t.Errorf("Server.Addr = %q, want :12445", cfg.Server.Addr)
	}
	if cfg.Server.Name != "CUSTOM" {
		t.Errorf("Server.Name = %q, want CUSTOM", cfg.Server.Name)
	}
	if cfg.Server.MaxMessageSize != 32*1000*1000 {
		t.Errorf("Server.MaxMessageSize = %d, want 32000000", cfg.Server.MaxMessageSize)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG (normalized)", cfg.Logging.Level)
	}
}

func TestLoadEnvironmentVariableOverride(t *testing.T) {
	// viper's AutomaticEnv only overrides keys already present in the
	// merged config (from a file, here), so the key must appear in the
	// fixture even though the env var is what actually wins.
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":1111\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SMBD_SERVER_ADDR", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want :9999 from env", cfg.Server.Addr)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Addr = ":4455"
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}
