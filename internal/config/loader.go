package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// maxIdentifierLength is PostgreSQL's NAMEDATALEN-1.
const maxIdentifierLength = 63

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if parsing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if strings.TrimSpace(c.Database.Host) == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT (%d) must be 1-65535", c.Database.Port))
	}
	if strings.TrimSpace(c.Database.User) == "" {
		errs = append(errs, "DB_USER is required")
	}
	if strings.TrimSpace(c.Database.Name) == "" {
		errs = append(errs, "DB_NAME is required")
	} else if len(c.Database.Name) > maxIdentifierLength {
		errs = append(errs, fmt.Sprintf("DB_NAME must be at most %d bytes", maxIdentifierLength))
	}
	if strings.TrimSpace(c.Database.MaintenanceName) == "" {
		errs = append(errs, "DB_MAINTENANCE_NAME is required")
	}
	if c.Database.ConnectTimeout < 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT must be non-negative")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, "SERVER_RATE_LIMIT must be positive")
	}
	if c.Server.RateWindow <= 0 {
		errs = append(errs, "SERVER_RATE_WINDOW must be positive")
	}

	// Intake validation
	if c.Intake.MaxWaitTime <= 0 {
		errs = append(errs, "INTAKE_MAX_WAIT_TIME must be positive")
	}
	if c.Intake.InsertTimeout <= 0 {
		errs = append(errs, "INTAKE_INSERT_TIMEOUT must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database password is masked.
func (c *Config) String() string {
	password := ""
	if c.Database.Password != "" {
		password = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Database: {Host: %q, Port: %d, User: %q, Password: %q, Name: %q}, ",
		c.Database.Host, c.Database.Port, c.Database.User, password, c.Database.Name))
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Intake: {MaxWaitTime: %s, InsertTimeout: %s}, ",
		c.Intake.MaxWaitTime, c.Intake.InsertTimeout))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
