package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolateEnv clears every variable Load reads so the host environment cannot leak in.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "ENV_FILE", "HTTP_ADDRESS", "HTTP_PORT", "PORT", "CORS_ORIGINS",
		"STORE_DRIVER", "STORE_PATH", "DB_PATH", "STORE_OPEN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.HTTP.Address != "0.0.0.0" {
		t.Errorf("Expected HTTP.Address to be 0.0.0.0, got %s", cfg.HTTP.Address)
	}
	if cfg.HTTP.Port != "5000" {
		t.Errorf("Expected HTTP.Port to be 5000, got %s", cfg.HTTP.Port)
	}
	if cfg.HTTP.Addr() != "0.0.0.0:5000" {
		t.Errorf("Expected HTTP.Addr() to be 0.0.0.0:5000, got %s", cfg.HTTP.Addr())
	}
	if cfg.HTTP.ReadTimeout != 15*time.Second {
		t.Errorf("Expected HTTP.ReadTimeout to be 15s, got %v", cfg.HTTP.ReadTimeout)
	}
	if !reflect.DeepEqual(cfg.HTTP.CORSOrigins, []string{"http://localhost:3000"}) {
		t.Errorf("Expected default CORS origin, got %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Store.Driver != StoreDriverBolt {
		t.Errorf("Expected Store.Driver to be bolt, got %s", cfg.Store.Driver)
	}
	if cfg.Store.Path != "overlays.db" {
		t.Errorf("Expected Store.Path to be overlays.db, got %s", cfg.Store.Path)
	}
	if cfg.Store.OpenTimeout != time.Second {
		t.Errorf("Expected Store.OpenTimeout to be 1s, got %v", cfg.Store.OpenTimeout)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Expected info/json logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "missing port",
			mutate:  func(cfg *Config) { cfg.HTTP.Port = "" },
			wantErr: true,
		},
		{
			name:    "zero read timeout",
			mutate:  func(cfg *Config) { cfg.HTTP.ReadTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative shutdown timeout",
			mutate:  func(cfg *Config) { cfg.HTTP.ShutdownTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "unknown store driver",
			mutate:  func(cfg *Config) { cfg.Store.Driver = "mongo" },
			wantErr: true,
		},
		{
			name:    "bolt without path",
			mutate:  func(cfg *Config) { cfg.Store.Path = "" },
			wantErr: true,
		},
		{
			name: "memory without path",
			mutate: func(cfg *Config) {
				cfg.Store.Driver = StoreDriverMemory
				cfg.Store.Path = ""
			},
			wantErr: false,
		},
		{
			name:    "zero open timeout",
			mutate:  func(cfg *Config) { cfg.Store.OpenTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			mutate:  func(cfg *Config) { cfg.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "unknown log format",
			mutate:  func(cfg *Config) { cfg.Log.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.HTTP.Port = ""
	cfg.Store.Driver = "mongo"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"HTTP port is required", `Store driver "mongo"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q missing %q", err, want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `http:
  address: "127.0.0.1"
  port: "9090"
  read_timeout: "5s"
  cors_origins:
    - "https://studio.example.com"
store:
  driver: "sqlite"
  path: "/var/lib/overlays/overlays.sqlite"
  open_timeout: "3s"
log:
  level: "debug"
  format: "text"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.HTTP.Address != "127.0.0.1" {
		t.Errorf("Expected HTTP.Address to be 127.0.0.1, got %s", cfg.HTTP.Address)
	}
	if cfg.HTTP.Port != "9090" {
		t.Errorf("Expected HTTP.Port to be 9090, got %s", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("Expected HTTP.ReadTimeout to be 5s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 15*time.Second {
		t.Errorf("Expected unset HTTP.WriteTimeout to keep default 15s, got %v", cfg.HTTP.WriteTimeout)
	}
	if !reflect.DeepEqual(cfg.HTTP.CORSOrigins, []string{"https://studio.example.com"}) {
		t.Errorf("Unexpected CORS origins %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Store.Driver != StoreDriverSQLite {
		t.Errorf("Expected Store.Driver to be sqlite, got %s", cfg.Store.Driver)
	}
	if cfg.Store.OpenTimeout != 3*time.Second {
		t.Errorf("Expected Store.OpenTimeout to be 3s, got %v", cfg.Store.OpenTimeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Expected debug/text logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("http: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("HTTP_ADDRESS", "192.168.1.1")
	t.Setenv("PORT", "7000")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/data/legacy.db")
	t.Setenv("STORE_PATH", "/data/overlays.sqlite")
	t.Setenv("STORE_OPEN_TIMEOUT", "250ms")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "Text")

	cfg := Default()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.HTTP.Address != "192.168.1.1" {
		t.Errorf("Expected HTTP.Address to be 192.168.1.1, got %s", cfg.HTTP.Address)
	}
	if cfg.HTTP.Port != "9999" {
		t.Errorf("Expected HTTP_PORT to win over PORT, got %s", cfg.HTTP.Port)
	}
	if !reflect.DeepEqual(cfg.HTTP.CORSOrigins, []string{"http://a.test", "http://b.test"}) {
		t.Errorf("Unexpected CORS origins %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Store.Driver != StoreDriverSQLite {
		t.Errorf("Expected Store.Driver to be sqlite, got %s", cfg.Store.Driver)
	}
	if cfg.Store.Path != "/data/overlays.sqlite" {
		t.Errorf("Expected STORE_PATH to win over DB_PATH, got %s", cfg.Store.Path)
	}
	if cfg.Store.OpenTimeout != 250*time.Millisecond {
		t.Errorf("Expected Store.OpenTimeout to be 250ms, got %v", cfg.Store.OpenTimeout)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("Expected warn/text logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestApplyEnvOverridesInvalidDuration(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORE_OPEN_TIMEOUT", "soon")

	if err := applyEnvOverrides(Default()); err == nil {
		t.Error("expected error for invalid STORE_OPEN_TIMEOUT")
	}
}

func TestLoadWithMissingFile(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CONFIG_FILE", "/non/existent/config.yaml")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() should not error when config file is missing: %v", err)
	}
	if cfg.HTTP.Port != "5000" {
		t.Errorf("Expected default HTTP.Port, got %s", cfg.HTTP.Port)
	}
}

func TestLoadWithMissingExplicitFile(t *testing.T) {
	isolateEnv(t)

	if _, err := Load("/non/existent/config.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	isolateEnv(t)
	// godotenv only fills variables that are unset.
	os.Unsetenv("STORE_DRIVER")
	os.Unsetenv("LOG_LEVEL")

	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("STORE_DRIVER=memory\nLOG_LEVEL=debug\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Driver != StoreDriverMemory {
		t.Errorf("Expected Store.Driver from .env to be memory, got %s", cfg.Store.Driver)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected Log.Level from .env to be debug, got %s", cfg.Log.Level)
	}
}

func TestLoadReadsConfigFileFromDotEnv(t *testing.T) {
	isolateEnv(t)
	os.Unsetenv("CONFIG_FILE")
	t.Cleanup(func() { os.Unsetenv("CONFIG_FILE") })

	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("http:\n  port: \"9090\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("CONFIG_FILE="+configPath+"\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", envPath)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != "9090" {
		t.Errorf("Expected HTTP.Port from CONFIG_FILE in .env to be 9090, got %s", cfg.HTTP.Port)
	}
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORE_DRIVER", "mongo")

	if _, err := Load(""); err == nil {
		t.Error("expected validation error")
	}
}
