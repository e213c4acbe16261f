// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/moneyflow/ledger-engine/logging"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// EnvPrefix prefixes every environment override, e.g. MONEYFLOW_SERVER_PORT.
const EnvPrefix = "MONEYFLOW"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Server struct {
		Port           int      `mapstructure:"port" yaml:"port"`
		AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	} `mapstructure:"server" yaml:"server"`

	Storage struct {
		Driver         string `mapstructure:"driver" yaml:"driver"`
		Path           string `mapstructure:"path" yaml:"path"`
		DSN            string `mapstructure:"dsn" yaml:"-"`
		RetainVersions int    `mapstructure:"retain_versions" yaml:"retain_versions"`
	} `mapstructure:"storage" yaml:"storage"`

	Ledger struct {
		Currency string `mapstructure:"currency" yaml:"currency"`
		Timezone string `mapstructure:"timezone" yaml:"timezone"`
	} `mapstructure:"ledger" yaml:"ledger"`

	AI struct {
		Enabled            bool   `mapstructure:"enabled" yaml:"enabled"`
		Model              string `mapstructure:"model" yaml:"model"`
		APIKey             string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
		Language           string `mapstructure:"language" yaml:"language"`
		TimeoutSeconds     int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		ProposalTTLMinutes int    `mapstructure:"proposal_ttl_minutes" yaml:"proposal_ttl_minutes"`
	} `mapstructure:"ai" yaml:"ai"`
}

// Location resolves the ledger timezone. Empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Ledger.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Ledger.Timezone)
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *Config) ProposalTTL() time.Duration {
	return time.Duration(c.AI.ProposalTTLMinutes) * time.Minute
}

// InitializeConfig loads configuration from defaults, an optional YAML
// file, and MONEYFLOW_* environment variables, in increasing precedence.
// An empty configFile searches ".", "$HOME/.moneyflow" for moneyflow.yaml.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("moneyflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.moneyflow")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// 5. API key comes from the unprefixed variable as well
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind GEMINI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", "moneyflow.json")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.retain_versions", 20)

	v.SetDefault("ledger.currency", "BDT")
	v.SetDefault("ledger.timezone", "")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.language", "en")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.proposal_ttl_minutes", 15)
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != logging.FormatText && config.Log.Format != logging.FormatJSON {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", config.Server.Port)
	}

	switch config.Storage.Driver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if config.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", config.Storage.Driver)
		}
	case DriverPostgres:
		if config.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be memory, file, sqlite or postgres)", config.Storage.Driver)
	}
	if config.Storage.RetainVersions < 1 {
		return fmt.Errorf("storage.retain_versions must be at least 1, got: %d", config.Storage.RetainVersions)
	}

	if config.Ledger.Currency == "" {
		return fmt.Errorf("ledger.currency is required")
	}
	if _, err := config.Location(); err != nil {
		return fmt.Errorf("invalid ledger.timezone: %w", err)
	}

	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
		if config.AI.ProposalTTLMinutes < 1 {
			return fmt.Errorf("ai.proposal_ttl_minutes must be at least 1, got: %d", config.AI.ProposalTTLMinutes)
		}
	}
	return nil
}

var envOnce sync.Once

// LoadEnv loads a .env file from the working directory or its parent,
// once per process. Variables already set win.
func LoadEnv() {
	envOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		_ = godotenv.Load(envFile)
	})
}
