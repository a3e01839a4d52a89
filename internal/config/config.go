// Package config loads server and CLI configuration from defaults, an
// optional YAML file, an optional .env file and GLUCOSE_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/quentinrf/glucose-log/internal/domain"
)

// EnvPrefix is prepended to every environment variable, e.g. GLUCOSE_STORAGE_PATH
const EnvPrefix = "GLUCOSE"

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLite drivers selectable with storage.sqlite_driver
const (
	SQLiteDriverCgo    = "sqlite3"
	SQLiteDriverPureGo = "sqlite"
)

// Config holds application configuration
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	GRPC    GRPCConfig    `mapstructure:"grpc"`
	Storage StorageConfig `mapstructure:"storage"`
	TLS     TLSConfig     `mapstructure:"tls"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig configures the JSON API
type HTTPConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// GRPCConfig configures the health endpoint; an empty port disables it
type GRPCConfig struct {
	Port string `mapstructure:"port"`
}

// StorageConfig selects and locates the reading store
type StorageConfig struct {
	Driver       string `mapstructure:"driver"`        // "memory" | "sqlite" | "postgres"
	Path         string `mapstructure:"path"`          // SQLite database file
	SQLiteDriver string `mapstructure:"sqlite_driver"` // "sqlite3" (cgo) | "sqlite" (pure Go)
	DSN          string `mapstructure:"dsn"`           // Postgres connection string
}

// TLSConfig holds certificate paths; an empty Cert disables TLS
type TLSConfig struct {
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
	CA   string `mapstructure:"ca"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" | "json"
}

// Load reads configuration. configPath may be empty, in which case
// ./config.yaml is used if present. A missing .env file is not an error.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("grpc.port", "50051")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.sqlite_driver", SQLiteDriverCgo)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("tls.cert", "")
	v.SetDefault("tls.key", "")
	v.SetDefault("tls.ca", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks the selected backend has a location. There is no default
// database path: the server refuses to start rather than guess one.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path (%s_STORAGE_PATH) is required for sqlite", domain.ErrInvalidConfig, EnvPrefix)
		}
		switch c.Storage.SQLiteDriver {
		case "", SQLiteDriverCgo, SQLiteDriverPureGo:
		default:
			return fmt.Errorf("%w: unknown storage.sqlite_driver %q", domain.ErrInvalidConfig, c.Storage.SQLiteDriver)
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn (%s_STORAGE_DSN) is required for postgres", domain.ErrInvalidConfig, EnvPrefix)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", domain.ErrInvalidConfig, c.Storage.Driver)
	}

	if c.TLS.Cert != "" && c.TLS.Key == "" {
		return fmt.Errorf("%w: tls.key is required when tls.cert is set", domain.ErrInvalidConfig)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown logging.format %q", domain.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}
