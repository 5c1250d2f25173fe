package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Ops      OpsConfig      `mapstructure:"ops"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Limiter  LimiterConfig  `mapstructure:"limiter"`
	Cards    CardsConfig    `mapstructure:"cards"`
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	if c.HTTP.Port == 0 {
		return errors.New("http.port is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Auth.JWTKey == "" {
		return errors.New("auth.jwt_key is required")
	}
	if c.Cards.DefaultPageSize > c.Cards.MaxPageSize {
		return fmt.Errorf("cards.default_page_size %d exceeds cards.max_page_size %d",
			c.Cards.DefaultPageSize, c.Cards.MaxPageSize)
	}
	return nil
}

// HTTPAddr returns host:port for HTTP server binding.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// LoggingConfig contains logger preferences. Level "development" selects the console encoder.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// HTTPConfig contains API server options.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpsConfig contains gRPC health server options.
type OpsConfig struct {
	Addr         string        `mapstructure:"addr"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// PostgresConfig describes the database connection.
type PostgresConfig struct {
	DSN            string        `mapstructure:"dsn"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// AuthConfig contains token settings.
type AuthConfig struct {
	JWTKey        string        `mapstructure:"jwt_key"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	UserCacheSize int           `mapstructure:"user_cache_size"`
}

// LimiterConfig mirrors limiter.Policy.
type LimiterConfig struct {
	Window   time.Duration `mapstructure:"window"`
	MaxFails int           `mapstructure:"max_fails"`
	BlockFor time.Duration `mapstructure:"block_for"`
}

// CardsConfig contains listing defaults.
type CardsConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}
