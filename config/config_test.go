package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/invoicer/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  public_url: "https://billing.example.com/"

database:
  driver: "sqlite"
  dsn: ":memory:"

invoicing:
  number_pattern: "ACME-{YY}-{####}"
  currency: "eur"
  default_due_days: 14
  overdue_sweep_interval: 15m
  timezone: "UTC"

ids:
  strategy: "snowflake"
  node: 7

email:
  provider: "smtp"
  from_address: "billing@example.com"
  from_name: "Acme Billing"
  smtp:
    host: "smtp.example.com"
    port: 2525

pdf:
  company_name: "Acme Ltd"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.PublicURL != "https://billing.example.com" {
		t.Errorf("PublicURL = %s, want trailing slash trimmed", cfg.Server.PublicURL)
	}
	if cfg.Invoicing.NumberPattern != "ACME-{YY}-{####}" {
		t.Errorf("NumberPattern = %s, want ACME-{YY}-{####}", cfg.Invoicing.NumberPattern)
	}
	if cfg.Invoicing.Currency != "EUR" {
		t.Errorf("Currency = %s, want EUR", cfg.Invoicing.Currency)
	}
	if cfg.Invoicing.DefaultDueDays != 14 {
		t.Errorf("DefaultDueDays = %d, want 14", cfg.Invoicing.DefaultDueDays)
	}
	if cfg.Invoicing.OverdueSweepInterval != 15*time.Minute {
		t.Errorf("OverdueSweepInterval = %v, want 15m", cfg.Invoicing.OverdueSweepInterval)
	}
	if cfg.IDs.Strategy != "snowflake" || cfg.IDs.Node != 7 {
		t.Errorf("IDs = %+v, want snowflake node 7", cfg.IDs)
	}
	if cfg.Email.SMTP.Port != 2525 {
		t.Errorf("SMTP.Port = %d, want 2525", cfg.Email.SMTP.Port)
	}
	if !cfg.PDF.Enabled {
		t.Error("PDF.Enabled = false, want true by default")
	}
	if cfg.PDF.CompanyName != "Acme Ltd" {
		t.Errorf("PDF.CompanyName = %s, want Acme Ltd", cfg.PDF.CompanyName)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "server:\n  port: 0\n")

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Invoicing.NumberPattern != "INV-{YYYY}{MM}-{0000}" {
		t.Errorf("default NumberPattern = %s", cfg.Invoicing.NumberPattern)
	}
	if cfg.Invoicing.Currency != "USD" {
		t.Errorf("default Currency = %s, want USD", cfg.Invoicing.Currency)
	}
	if cfg.Invoicing.DefaultDueDays != 30 {
		t.Errorf("default DefaultDueDays = %d, want 30", cfg.Invoicing.DefaultDueDays)
	}
	if cfg.Invoicing.OverdueSweepInterval != time.Hour {
		t.Errorf("default OverdueSweepInterval = %v, want 1h", cfg.Invoicing.OverdueSweepInterval)
	}
	if cfg.Invoicing.Timezone != "Local" {
		t.Errorf("default Timezone = %s, want Local", cfg.Invoicing.Timezone)
	}
	if cfg.IDs.Strategy != "uuid" {
		t.Errorf("default IDs.Strategy = %s, want uuid", cfg.IDs.Strategy)
	}
	if cfg.Email.Provider != "none" {
		t.Errorf("default Email.Provider = %s, want none", cfg.Email.Provider)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default Logging = %+v, want info/json", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics = %+v, want enabled at /metrics", cfg.Metrics)
	}
	if !cfg.OpenAPI.Enabled {
		t.Error("default OpenAPI.Enabled = false, want true")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_INVOICE_DSN", "/tmp/expanded.db")

	cfg := writeAndLoad(t, "database:\n  dsn: \"${TEST_INVOICE_DSN}\"\n")

	if cfg.Database.DSN != "/tmp/expanded.db" {
		t.Errorf("Database.DSN = %s, want /tmp/expanded.db", cfg.Database.DSN)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "database:\n  driver: postgres\n"},
		{"negative due days", "invoicing:\n  default_due_days: -1\n"},
		{"negative sweep interval", "invoicing:\n  overdue_sweep_interval: -5m\n"},
		{"unknown timezone", "invoicing:\n  timezone: Mars/Olympus\n"},
		{"unknown id strategy", "ids:\n  strategy: ulid\n"},
		{"snowflake node out of range", "ids:\n  strategy: snowflake\n  node: 2048\n"},
		{"unknown email provider", "email:\n  provider: sendgrid\n"},
		{"smtp without host", "email:\n  provider: smtp\n  from_address: a@b.c\n"},
		{"smtp without from", "email:\n  provider: smtp\n  smtp:\n    host: mail\n"},
		{"short secrets key", "secrets:\n  key: abcd\n"},
		{"non-hex secrets key", "secrets:\n  key: " + strings.Repeat("zz", 32) + "\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"invalid yaml", "server:\n  port: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := writeAndLoadErr(t, tt.content); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_ValidSecretsKey(t *testing.T) {
	key := strings.Repeat("ab", 32)
	cfg := writeAndLoad(t, "secrets:\n  key: \""+key+"\"\n")
	if cfg.Secrets.Key != key {
		t.Errorf("Secrets.Key = %s, want %s", cfg.Secrets.Key, key)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INVOICER_SERVER_PORT", "9999")
	t.Setenv("INVOICER_DATABASE_DSN", "/tmp/env-test.db")
	t.Setenv("INVOICER_NUMBER_PATTERN", "{YYYY}/{####}")
	t.Setenv("INVOICER_CURRENCY", "gbp")
	t.Setenv("INVOICER_DUE_DAYS", "45")
	t.Setenv("INVOICER_OVERDUE_SWEEP_INTERVAL", "10m")
	t.Setenv("INVOICER_TIMEZONE", "Europe/London")
	t.Setenv("INVOICER_LOG_LEVEL", "debug")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.DSN != "/tmp/env-test.db" {
		t.Errorf("Database.DSN = %s, want /tmp/env-test.db", cfg.Database.DSN)
	}
	if cfg.Invoicing.NumberPattern != "{YYYY}/{####}" {
		t.Errorf("NumberPattern = %s, want {YYYY}/{####}", cfg.Invoicing.NumberPattern)
	}
	if cfg.Invoicing.Currency != "GBP" {
		t.Errorf("Currency = %s, want GBP", cfg.Invoicing.Currency)
	}
	if cfg.Invoicing.DefaultDueDays != 45 {
		t.Errorf("DefaultDueDays = %d, want 45", cfg.Invoicing.DefaultDueDays)
	}
	if cfg.Invoicing.OverdueSweepInterval != 10*time.Minute {
		t.Errorf("OverdueSweepInterval = %v, want 10m", cfg.Invoicing.OverdueSweepInterval)
	}
	if cfg.Invoicing.Timezone != "Europe/London" {
		t.Errorf("Timezone = %s, want Europe/London", cfg.Invoicing.Timezone)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("INVOICER_SERVER_PORT", "7777")
	t.Setenv("INVOICER_LOG_LEVEL", "error")

	content := `
server:
  port: 8080
logging:
  level: "info"
invoicing:
  currency: "INR"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
	if cfg.Invoicing.Currency != "INR" {
		t.Errorf("Currency = %s, want INR", cfg.Invoicing.Currency)
	}
}

func TestLoadWithFallback(t *testing.T) {
	path := writeConfig(t, "invoicing:\n  currency: JPY\n")

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Invoicing.Currency != "JPY" {
		t.Errorf("Currency = %s, want JPY", cfg.Invoicing.Currency)
	}

	t.Setenv("INVOICER_DATABASE_DRIVER", "memory")
	cfg, err = config.LoadWithFallback("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("LoadWithFallback env error: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Database.Driver = %s, want memory", cfg.Database.Driver)
	}
}

func TestHasEnvConfig(t *testing.T) {
	t.Setenv("INVOICER_DATABASE_DSN", "")
	t.Setenv("INVOICER_DATABASE_DRIVER", "")
	if config.HasEnvConfig() {
		t.Error("HasEnvConfig() = true, want false")
	}

	t.Setenv("INVOICER_DATABASE_DSN", "/data/invoicer.db")
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig() = false, want true")
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("INVOICER_METRICS_ENABLED", tt.value)

			cfg, err := config.LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv error: %v", err)
			}
			if cfg.Metrics.Enabled != tt.expected {
				t.Errorf("Metrics.Enabled = %v, want %v", cfg.Metrics.Enabled, tt.expected)
			}
		})
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()
	return config.Load(writeConfig(t, content))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
