// Package config provides application configuration management using Viper.
// It supports loading from environment variables, config files, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	Operator OperatorConfig
	Session  SessionConfig
	App      AppConfig
	Log      LogConfig
}

// ServerConfig holds the HTTP health/metrics server settings. The hosting
// platform requires a bound port even though the bot itself long-polls.
type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string
	Port                  int
	User                  string
	Password              string
	Name                  string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// ConnectionString returns a PostgreSQL connection string.
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelegramConfig holds messaging transport settings.
type TelegramConfig struct {
	// Token is the bot API access token.
	Token string
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int
	// Debug enables verbose transport logging.
	Debug bool
}

// OperatorConfig holds operator registration settings.
type OperatorConfig struct {
	// Password is the shared secret new operators must present.
	Password string
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	// IdleTTL is how long an abandoned conversation keeps its state.
	IdleTTL time.Duration
	// CleanupInterval is the janitor sweep period.
	CleanupInterval time.Duration
}

// AppConfig holds general application settings.
type AppConfig struct {
	// BusinessName appears in operator notifications and logs.
	BusinessName string
	// Timezone is the studio's local timezone, used to interpret
	// client-entered appointment times.
	Timezone string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and config files.
// Environment variables take precedence over config file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/detailbot")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Hosting platforms hand out the port as a bare PORT variable.
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")

	setDefaults(v)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configNotFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFoundErr) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("server.host"),
			Port:        v.GetInt("server.port"),
			Environment: v.GetString("server.env"),
		},
		Database: DatabaseConfig{
			Host:                  v.GetString("database.host"),
			Port:                  v.GetInt("database.port"),
			User:                  v.GetString("database.user"),
			Password:              v.GetString("database.password"),
			Name:                  v.GetString("database.name"),
			SSLMode:               v.GetString("database.sslmode"),
			MaxConnections:        v.GetInt("database.max_connections"),
			MaxIdleConnections:    v.GetInt("database.max_idle_connections"),
			ConnectionMaxLifetime: v.GetDuration("database.connection_max_lifetime"),
		},
		Telegram: TelegramConfig{
			Token:       v.GetString("bot.token"),
			PollTimeout: v.GetInt("bot.poll_timeout"),
			Debug:       v.GetBool("bot.debug"),
		},
		Operator: OperatorConfig{
			Password: v.GetString("operator.password"),
		},
		Session: SessionConfig{
			IdleTTL:         v.GetDuration("session.idle_ttl"),
			CleanupInterval: v.GetDuration("session.cleanup_interval"),
		},
		App: AppConfig{
			BusinessName: v.GetString("app.business_name"),
			Timezone:     v.GetString("app.timezone"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "detailbot")
	v.SetDefault("database.name", "detailbot")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)
	v.SetDefault("database.connection_max_lifetime", "5m")

	// Bot defaults
	v.SetDefault("bot.poll_timeout", 30)
	v.SetDefault("bot.debug", false)

	// Session defaults
	v.SetDefault("session.idle_ttl", "30m")
	v.SetDefault("session.cleanup_interval", "5m")

	// App defaults
	v.SetDefault("app.business_name", "RKS Studio")
	v.SetDefault("app.timezone", "Europe/Moscow")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration values are present.
func (c *Config) Validate() error {
	var missing []string

	if c.Telegram.Token == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.Operator.Password == "" {
		missing = append(missing, "OPERATOR_PASSWORD")
	}
	if c.Database.Password == "" {
		missing = append(missing, "DATABASE_PASSWORD")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Location resolves the configured timezone, falling back to UTC on a bad
// value so a typo cannot keep the bot from starting.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
