// Package config provides configuration loading and validation.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/invoicer/domain/numbering"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Invoicing InvoicingConfig `yaml:"invoicing"`
	IDs       IDConfig        `yaml:"ids"`
	Email     EmailConfig     `yaml:"email"`
	PDF       PDFConfig       `yaml:"pdf"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	OpenAPI   OpenAPIConfig   `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PublicURL    string        `yaml:"public_url"` // Base for client-facing invoice links
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// InvoicingConfig configures invoice numbering and lifecycle.
type InvoicingConfig struct {
	NumberPattern        string        `yaml:"number_pattern"`
	Currency             string        `yaml:"currency"`
	DefaultDueDays       int           `yaml:"default_due_days"`
	OverdueSweepInterval time.Duration `yaml:"overdue_sweep_interval"`
	Timezone             string        `yaml:"timezone"` // IANA name; numbering uses this calendar day
}

// IDConfig selects how entity IDs are generated.
type IDConfig struct {
	Strategy string `yaml:"strategy"` // "uuid" or "snowflake"
	Node     int64  `yaml:"node"`     // snowflake node number, 0-1023
}

// EmailConfig configures outgoing email.
type EmailConfig struct {
	Provider    string     `yaml:"provider"` // "none", "mock", "smtp"
	FromAddress string     `yaml:"from_address"`
	FromName    string     `yaml:"from_name"`
	SMTP        SMTPConfig `yaml:"smtp"`
}

// SMTPConfig configures the SMTP relay.
type SMTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password,omitempty"`
	UseTLS      bool   `yaml:"use_tls"`
	UseImplicit bool   `yaml:"use_implicit"`
}

// PDFConfig configures invoice PDF rendering.
type PDFConfig struct {
	Enabled        bool   `yaml:"enabled"`
	CompanyName    string `yaml:"company_name"`
	CompanyAddress string `yaml:"company_address"`
}

// SecretsConfig configures sealing of stored gateway secrets.
type SecretsConfig struct {
	Key string `yaml:"key,omitempty"` // 64 hex chars; empty stores secrets unsealed
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /swagger endpoints
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
		PDF:     PDFConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for container deployments where no config file is needed.
//
// Environment variables:
//
//	INVOICER_SERVER_HOST             - Server host (default: 0.0.0.0)
//	INVOICER_SERVER_PORT             - Server port (default: 8080)
//	INVOICER_PUBLIC_URL              - Base URL for client invoice links
//	INVOICER_DATABASE_DRIVER         - sqlite or memory (default: sqlite)
//	INVOICER_DATABASE_DSN            - Database path (default: invoicer.db)
//	INVOICER_NUMBER_PATTERN          - Invoice number pattern (default: INV-{YYYY}{MM}-{0000})
//	INVOICER_CURRENCY                - Default currency code (default: USD)
//	INVOICER_DUE_DAYS                - Default payment term in days (default: 30)
//	INVOICER_OVERDUE_SWEEP_INTERVAL  - Overdue sweep interval, e.g. 15m (default: 1h)
//	INVOICER_TIMEZONE                - Numbering timezone (default: Local)
//	INVOICER_ID_STRATEGY             - uuid or snowflake (default: uuid)
//	INVOICER_EMAIL_PROVIDER          - none, mock or smtp (default: none)
//	INVOICER_SMTP_HOST               - SMTP host
//	INVOICER_SECRETS_KEY             - 64 hex chars sealing gateway secrets
//	INVOICER_LOG_LEVEL               - debug, info, warn, error (default: info)
//	INVOICER_LOG_FORMAT              - json or console (default: json)
//	INVOICER_METRICS_ENABLED         - Enable /metrics endpoint (default: true)
//	INVOICER_OPENAPI_ENABLED         - Enable Swagger UI (default: true)
func LoadFromEnv() (*Config, error) {
	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
		PDF:     PDFConfig{Enabled: true},
	}
	return finish(&cfg)
}

// LoadWithFallback loads from path when the file exists and falls back
// to environment variables otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// HasEnvConfig returns true if a database is configured through the environment.
func HasEnvConfig() bool {
	return os.Getenv("INVOICER_DATABASE_DSN") != "" || os.Getenv("INVOICER_DATABASE_DRIVER") != ""
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies INVOICER_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("INVOICER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("INVOICER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("INVOICER_PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}

	// Database configuration
	if v := os.Getenv("INVOICER_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("INVOICER_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Invoicing configuration
	if v := os.Getenv("INVOICER_NUMBER_PATTERN"); v != "" {
		cfg.Invoicing.NumberPattern = v
	}
	if v := os.Getenv("INVOICER_CURRENCY"); v != "" {
		cfg.Invoicing.Currency = v
	}
	if v := os.Getenv("INVOICER_DUE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Invoicing.DefaultDueDays = n
		}
	}
	if v := os.Getenv("INVOICER_OVERDUE_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Invoicing.OverdueSweepInterval = d
		}
	}
	if v := os.Getenv("INVOICER_TIMEZONE"); v != "" {
		cfg.Invoicing.Timezone = v
	}

	// ID configuration
	if v := os.Getenv("INVOICER_ID_STRATEGY"); v != "" {
		cfg.IDs.Strategy = v
	}

	// Email configuration
	if v := os.Getenv("INVOICER_EMAIL_PROVIDER"); v != "" {
		cfg.Email.Provider = v
	}
	if v := os.Getenv("INVOICER_SMTP_HOST"); v != "" {
		cfg.Email.SMTP.Host = v
	}
	if v := os.Getenv("INVOICER_SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTP.Password = v
	}

	// Secrets
	if v := os.Getenv("INVOICER_SECRETS_KEY"); v != "" {
		cfg.Secrets.Key = v
	}

	// Logging configuration
	if v := os.Getenv("INVOICER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("INVOICER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("INVOICER_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("INVOICER_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// OpenAPI configuration
	if v := os.Getenv("INVOICER_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	cfg.Server.PublicURL = strings.TrimSuffix(cfg.Server.PublicURL, "/")

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "invoicer.db"
	}

	if cfg.Invoicing.NumberPattern == "" {
		cfg.Invoicing.NumberPattern = numbering.DefaultPattern
	}
	if cfg.Invoicing.Currency == "" {
		cfg.Invoicing.Currency = "USD"
	}
	cfg.Invoicing.Currency = strings.ToUpper(cfg.Invoicing.Currency)
	if cfg.Invoicing.DefaultDueDays == 0 {
		cfg.Invoicing.DefaultDueDays = 30
	}
	if cfg.Invoicing.OverdueSweepInterval == 0 {
		cfg.Invoicing.OverdueSweepInterval = time.Hour
	}
	if cfg.Invoicing.Timezone == "" {
		cfg.Invoicing.Timezone = "Local"
	}

	if cfg.IDs.Strategy == "" {
		cfg.IDs.Strategy = "uuid"
	}

	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "none"
	}
	if cfg.Email.SMTP.Port == 0 {
		cfg.Email.SMTP.Port = 587
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	if !numbering.ValidatePattern(cfg.Invoicing.NumberPattern) {
		return fmt.Errorf("invoicing.number_pattern is invalid")
	}
	if cfg.Invoicing.DefaultDueDays < 0 {
		return fmt.Errorf("invoicing.default_due_days must not be negative")
	}
	if cfg.Invoicing.OverdueSweepInterval < 0 {
		return fmt.Errorf("invoicing.overdue_sweep_interval must not be negative")
	}
	if cfg.Invoicing.Timezone != "Local" {
		if _, err := time.LoadLocation(cfg.Invoicing.Timezone); err != nil {
			return fmt.Errorf("invoicing.timezone: %w", err)
		}
	}

	validStrategies := map[string]bool{"uuid": true, "snowflake": true}
	if !validStrategies[cfg.IDs.Strategy] {
		return fmt.Errorf("ids.strategy must be 'uuid' or 'snowflake', got %q", cfg.IDs.Strategy)
	}
	if cfg.IDs.Node < 0 || cfg.IDs.Node > 1023 {
		return fmt.Errorf("ids.node must be between 0 and 1023")
	}

	validProviders := map[string]bool{"none": true, "mock": true, "smtp": true}
	if !validProviders[cfg.Email.Provider] {
		return fmt.Errorf("email.provider must be one of: none, mock, smtp")
	}
	if cfg.Email.Provider == "smtp" {
		if cfg.Email.SMTP.Host == "" {
			return fmt.Errorf("email.smtp.host is required when email.provider is 'smtp'")
		}
		if cfg.Email.FromAddress == "" {
			return fmt.Errorf("email.from_address is required when email.provider is 'smtp'")
		}
	}

	if cfg.Secrets.Key != "" {
		key, err := hex.DecodeString(cfg.Secrets.Key)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("secrets.key must be 64 hex characters")
		}
	}

	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
