package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL      string        `envconfig:"DATABASE_URL"`
	DBMaxConns       int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	StatementTimeout time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"5s"`
	RedisURL         string        `envconfig:"REDIS_URL"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Ranking catalog: a local YAML file, or an object in the S3 bucket below
	CatalogFile  string `envconfig:"CATALOG_FILE"`
	CatalogS3Key string `envconfig:"CATALOG_S3_KEY"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"prepwise-config"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	CollectionTimeout  time.Duration `envconfig:"COLLECTION_TIMEOUT" default:"2s"`
	TrackTimeout       time.Duration `envconfig:"TRACK_TIMEOUT" default:"3s"`
	SearchLogRetention time.Duration `envconfig:"SEARCH_LOG_RETENTION" default:"2160h"`
	HistorySize        int           `envconfig:"HISTORY_SIZE" default:"50"`
	MetricsEnabled     bool          `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads the server configuration. PREPWISE_DATABASE_URL is required.
func Load() (*Config, error) {
	cfg, err := LoadWithoutDatabase()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required key PREPWISE_DATABASE_URL missing value")
	}
	return cfg, nil
}

// LoadWithoutDatabase reads the configuration for commands that never open
// the database, such as catalog inspection.
func LoadWithoutDatabase() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PREPWISE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.StatementTimeout < 0 {
		return fmt.Errorf("DB_STATEMENT_TIMEOUT must not be negative")
	}
	if c.CollectionTimeout <= 0 {
		return fmt.Errorf("COLLECTION_TIMEOUT must be positive")
	}
	if c.TrackTimeout <= 0 {
		return fmt.Errorf("TRACK_TIMEOUT must be positive")
	}
	if c.SearchLogRetention < 0 {
		return fmt.Errorf("SEARCH_LOG_RETENTION must not be negative")
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("HISTORY_SIZE must be positive")
	}
	if c.CatalogS3Key != "" && !c.HasS3() {
		return fmt.Errorf("CATALOG_S3_KEY requires S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY")
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

func (c *Config) HasCatalogS3() bool {
	return c.CatalogS3Key != "" && c.HasS3()
}
