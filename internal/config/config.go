package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   string `envconfig:"PORT" default:"8080"`
	DBURL  string `envconfig:"DB_URL"`

	ReadTimeoutSecs  int `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeoutSecs int `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"`
	IdleTimeoutSecs  int `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`

	DBMaxConns        int `envconfig:"DB_MAX_CONNS" default:"20"`
	DBMinConns        int `envconfig:"DB_MIN_CONNS" default:"2"`
	DBMaxIdleSecs     int `envconfig:"DB_MAX_CONN_IDLE_SECS" default:"300"`
	DBMaxLifeSecs     int `envconfig:"DB_MAX_CONN_LIFETIME_SECS" default:"3600"`
	DBConnTimeoutSecs int `envconfig:"DB_CONN_TIMEOUT_SECS" default:"10"`
	DBStatementCache  int `envconfig:"DB_STATEMENT_CACHE_CAPACITY" default:"256"`

	// MaxCandidates bounds predictor output per refresh; SeedLimit bounds the
	// onboarding seed batch.
	MaxCandidates int `envconfig:"RECOMMENDER_MAX_CANDIDATES" default:"10"`
	SeedLimit     int `envconfig:"RECOMMENDER_SEED_LIMIT" default:"10"`
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.ReadTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.WriteTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.MaxCandidates <= 0 {
		return Config{}, fmt.Errorf("RECOMMENDER_MAX_CANDIDATES must be positive")
	}
	if cfg.SeedLimit <= 0 {
		return Config{}, fmt.Errorf("RECOMMENDER_SEED_LIMIT must be positive")
	}

	return cfg, nil
}
