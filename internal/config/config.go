// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Intake   IntakeConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Host is the database server host (default: localhost)
	Host string `env:"DB_HOST" envDefault:"localhost"`

	// Port is the database server port (default: 5432)
	Port int `env:"DB_PORT" envDefault:"5432"`

	// User is the login role (default: postgres)
	User string `env:"DB_USER" envDefault:"postgres"`

	// Password for User; may be empty for trust or peer auth
	Password string `env:"DB_PASSWORD"`

	// Name is the target database, created on first use (default: userdb)
	Name string `env:"DB_NAME" envDefault:"userdb"`

	// MaintenanceName is the database used for the server-level connection (default: postgres)
	MaintenanceName string `env:"DB_MAINTENANCE_NAME" envDefault:"postgres"`

	// SSLMode is passed through as sslmode (default: disable)
	SSLMode string `env:"DB_SSLMODE" envDefault:"disable"`

	// ConnectTimeout bounds each connection attempt (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`
}

// ServerConfig holds HTTP intake server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envDefault:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"30s"`

	// RateLimit is requests allowed per client IP per RateWindow (default: 100)
	RateLimit  int           `env:"SERVER_RATE_LIMIT" envDefault:"100"`
	RateWindow time.Duration `env:"SERVER_RATE_WINDOW" envDefault:"1m"`
}

// IntakeConfig holds submission processing settings.
type IntakeConfig struct {
	// MaxWaitTime is how long a submission waits for the connection (default: 5s)
	MaxWaitTime time.Duration `env:"INTAKE_MAX_WAIT_TIME" envDefault:"5s"`

	// InsertTimeout bounds one insert once it holds the connection (default: 10s)
	InsertTimeout time.Duration `env:"INTAKE_INSERT_TIMEOUT" envDefault:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// ConnString returns a postgres:// URL for the named database.
// Credentials are escaped by net/url.
func (c DatabaseConfig) ConnString(dbname string) string {
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ConnectTimeout > 0 {
		secs := int(c.ConnectTimeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + dbname,
		RawQuery: q.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}
	return u.String()
}

// ServerConnString is the connection string for the maintenance database.
func (c DatabaseConfig) ServerConnString() string {
	return c.ConnString(c.MaintenanceName)
}

// TargetConnString is the connection string for the target database.
func (c DatabaseConfig) TargetConnString() string {
	return c.ConnString(c.Name)
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
