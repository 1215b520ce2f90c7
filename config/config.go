package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port           string   `env:"PORT" envDefault:"5250"`
		GinMode        string   `env:"GIN_MODE" envDefault:"release"`
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Database struct {
		// One of sqlite3, postgres or mysql
		Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
		DSN    string `env:"DB_DSN" envDefault:"database/steelprice.db"`

		// Upper bound for a single price query
		QueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"900s"`
	}

	Query QueryProfile

	// Optional JSON file overriding the Query section
	QueryProfilePath string `env:"QUERY_PROFILE_PATH"`

	Pricing struct {
		// Steel density in kg/mm³
		Density  float64 `env:"STEEL_DENSITY" envDefault:"0.00000787"`
		Currency string  `env:"CURRENCY" envDefault:"€"`
	}

	Logging struct {
		Level      string `env:"LOG_LEVEL" envDefault:"info"`
		File       string `env:"LOG_FILE"`
		MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
		MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	}

	Import struct {
		// Number of records pushed to the queue at once
		BatchSize int `env:"IMPORT_BATCH_SIZE" envDefault:"200"`

		// Buffered batches before Push reports a full queue
		QueueSize int `env:"IMPORT_QUEUE_SIZE" envDefault:"64"`

		MaxRetries int `env:"IMPORT_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"IMPORT_RETRY_DELAY" envDefault:"2"`
	}
}

// QueryProfile holds the domain knowledge that narrows the purchase history
// down to comparable bar stock.
type QueryProfile struct {
	DiameterThreshold int      `json:"diameter_threshold" env:"DIAMETER_THRESHOLD" envDefault:"330"`
	LengthThreshold   int      `json:"length_threshold" env:"LENGTH_THRESHOLD" envDefault:"50"`
	MaterialGroupMin  int      `json:"material_group_min" env:"MATERIAL_GROUP_MIN" envDefault:"50"`
	MaterialGroupMax  int      `json:"material_group_max" env:"MATERIAL_GROUP_MAX" envDefault:"54"`
	ExclusionMarkers  []string `json:"exclusion_markers" env:"EXCLUSION_MARKERS" envSeparator:"," envDefault:"TLB,blank,US,hartverchromt,HH,QT"`
	LookbackDays      int      `json:"lookback_days" env:"LOOKBACK_DAYS" envDefault:"30"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.QueryProfilePath != "" {
		profile, err := LoadQueryProfile(cfg.QueryProfilePath, cfg.Query)
		if err != nil {
			return nil, err
		}
		cfg.Query = profile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make every query meaningless.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("DB_DSN is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return errors.New("DB_QUERY_TIMEOUT must be positive")
	}
	if c.Pricing.Density <= 0 {
		return errors.New("STEEL_DENSITY must be positive")
	}
	if c.Import.BatchSize <= 0 || c.Import.QueueSize <= 0 {
		return errors.New("IMPORT_BATCH_SIZE and IMPORT_QUEUE_SIZE must be positive")
	}
	if c.Import.MaxRetries < 0 || c.Import.RetryDelay < 0 {
		return errors.New("import retry settings must not be negative")
	}
	return c.Query.Validate()
}

func (p QueryProfile) Validate() error {
	if p.DiameterThreshold <= 0 || p.LengthThreshold <= 0 {
		return errors.New("size thresholds must be positive")
	}
	if p.MaterialGroupMin > p.MaterialGroupMax {
		return fmt.Errorf("material group band %d..%d is empty", p.MaterialGroupMin, p.MaterialGroupMax)
	}
	if p.LookbackDays <= 0 {
		return errors.New("LOOKBACK_DAYS must be positive")
	}
	return nil
}
