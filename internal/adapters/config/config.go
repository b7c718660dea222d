package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"pdcr/pkg/errors"
)

type Config struct {
	App           AppConfig
	Environments  EnvironmentsConfig
	Archive       ArchiveConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"pdcr"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// EnvironmentsConfig locates the environment registry file and controls how
// pools are opened
type EnvironmentsConfig struct {
	// File is the YAML registry of named database environments
	File string `envconfig:"TD_ENV_FILE" default:"td_env.yaml"`

	// Driver is the database/sql driver name the default opener uses. The
	// Teradata driver registers as "teradata"; "postgres" and "sqlite" are also
	// linked into the CLI for running the report suite against mirrors.
	Driver string `envconfig:"TD_DRIVER" default:"teradata"`

	// PoolSize is the per-environment connection pool size
	PoolSize int `envconfig:"TD_POOL_SIZE" default:"5"`
}

// ArchiveConfig configures the optional ClickHouse snapshot archive
type ArchiveConfig struct {
	Enabled  bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"pdcr"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
