// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read when present; real environment variables win.
const DefaultEnvFile = "config/.env"

// keys lists every setting so viper binds its environment variable
// (postgres.dsn -> POSTGRES_DSN).
var keys = []string{
	"logging.level",
	"http.host",
	"http.port",
	"http.request_timeout",
	"http.shutdown_timeout",
	"ops.addr",
	"ops.ping_interval",
	"postgres.dsn",
	"postgres.max_conns",
	"postgres.min_conns",
	"postgres.connect_timeout",
	"auth.jwt_key",
	"auth.access_ttl",
	"auth.user_cache_size",
	"limiter.window",
	"limiter.max_fails",
	"limiter.block_for",
	"cards.default_page_size",
	"cards.max_page_size",
}

// NewConfig loads configuration from DefaultEnvFile and the environment.
func NewConfig() (*Config, error) {
	return Load(DefaultEnvFile)
}

// Load is NewConfig with an explicit env file.
func Load(envFile string) (*Config, error) {
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.request_timeout", 5*time.Second)
	v.SetDefault("http.shutdown_timeout", 5*time.Second)

	v.SetDefault("ops.addr", ":9090")
	v.SetDefault("ops.ping_interval", 10*time.Second)

	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.connect_timeout", 5*time.Second)

	v.SetDefault("auth.access_ttl", 15*time.Minute)
	v.SetDefault("auth.user_cache_size", 1024)

	v.SetDefault("limiter.window", 15*time.Minute)
	v.SetDefault("limiter.max_fails", 5)
	v.SetDefault("limiter.block_for", 15*time.Minute)

	v.SetDefault("cards.default_page_size", 10)
	v.SetDefault("cards.max_page_size", 100)
}
