// Package config loads service settings from the environment, optionally
// seeded from .env files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

const maxWorkers = 10

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        string `env:"PORT" envDefault:"8080"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	Import   ImportConfig
	Password PasswordConfig
	Logging  LoggingConfig
}

type ImportConfig struct {
	BaseDir      string        `env:"IMPORT_BASE_DIR" envDefault:"."`
	Workers      int           `env:"IMPORT_WORKERS" envDefault:"10"`
	Lease        time.Duration `env:"IMPORT_JOB_LEASE" envDefault:"60s"`
	PollInterval time.Duration `env:"IMPORT_POLL_INTERVAL" envDefault:"500ms"`

	// Defaults for the per-chunk limits; the settings table overrides them.
	UpdatesPerTransaction int `env:"IMPORT_UPDATES_PER_TRANSACTION" envDefault:"1000"`
	TransactionSeconds    int `env:"IMPORT_TRANSACTION_SECONDS" envDefault:"1"`

	GateOnValidation bool `env:"IMPORT_GATE_ON_VALIDATION" envDefault:"false"`
}

type PasswordConfig struct {
	BcryptCost int `env:"PASSWORD_BCRYPT_COST" envDefault:"10"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the existing files among envFiles and then parses the
// environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Import.Workers < 1 {
		c.Import.Workers = 1
	}
	if c.Import.Workers > maxWorkers {
		c.Import.Workers = maxWorkers
	}
	if c.Import.UpdatesPerTransaction <= 0 {
		return fmt.Errorf("IMPORT_UPDATES_PER_TRANSACTION must be positive, got %d", c.Import.UpdatesPerTransaction)
	}
	if c.Import.TransactionSeconds <= 0 {
		return fmt.Errorf("IMPORT_TRANSACTION_SECONDS must be positive, got %d", c.Import.TransactionSeconds)
	}
	if c.Import.Lease <= 0 {
		return fmt.Errorf("IMPORT_JOB_LEASE must be positive, got %s", c.Import.Lease)
	}
	return nil
}

func (c *Config) ChunkLimits() domain.ChunkLimits {
	return domain.ChunkLimits{
		MaxRows:     c.Import.UpdatesPerTransaction,
		MaxDuration: time.Duration(c.Import.TransactionSeconds) * time.Second,
	}
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}
