// Package config loads filterql settings from a YAML file, FILTERQL_*
// environment variables and defaults, in that order of precedence
// (environment first).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// EnvPrefix prefixes environment overrides: FILTERQL_SERVER_ADDRESS sets
// server.address.
const EnvPrefix = "FILTERQL"

// Config is the complete runtime configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Query  QueryConfig  `mapstructure:"query"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StoreConfig selects the database. Driver is "sqlite3" or "pgx".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Seed   bool   `mapstructure:"seed"`
}

// QueryConfig bounds list requests.
type QueryConfig struct {
	MaxFilterLength int    `mapstructure:"max_filter_length"`
	MaxSortLength   int    `mapstructure:"max_sort_length"`
	Culture         string `mapstructure:"culture"`
	DefaultPageSize int    `mapstructure:"default_page_size"`
	MaxPageSize     int    `mapstructure:"max_page_size"`
}

// CultureTag parses Culture as a BCP 47 tag.
func (q QueryConfig) CultureTag() (language.Tag, error) {
	return language.Parse(q.Culture)
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults.
const (
	DefaultAddress         = ":8080"
	DefaultDriver          = "sqlite3"
	DefaultDSN             = "file:filterql.db"
	DefaultMaxFilterLength = 4096
	DefaultMaxSortLength   = 2048
	DefaultCulture         = "en"
	DefaultPageSize        = 20
	DefaultMaxPageSize     = 200
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", DefaultAddress)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("store.driver", DefaultDriver)
	v.SetDefault("store.dsn", DefaultDSN)
	v.SetDefault("store.seed", false)
	v.SetDefault("query.max_filter_length", DefaultMaxFilterLength)
	v.SetDefault("query.max_sort_length", DefaultMaxSortLength)
	v.SetDefault("query.culture", DefaultCulture)
	v.SetDefault("query.default_page_size", DefaultPageSize)
	v.SetDefault("query.max_page_size", DefaultMaxPageSize)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// New returns a viper instance with defaults and environment binding set
// up. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) into v and returns the validated config.
// A missing path is an error; an empty path uses defaults and environment
// only.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	switch c.Store.Driver {
	case "sqlite3", "sqlite", "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("store.driver %q: want sqlite3 or pgx", c.Store.Driver))
	}
	if c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required"))
	}
	if c.Query.MaxFilterLength <= 0 {
		errs = append(errs, errors.New("query.max_filter_length must be positive"))
	}
	if c.Query.MaxSortLength <= 0 {
		errs = append(errs, errors.New("query.max_sort_length must be positive"))
	}
	if _, err := c.Query.CultureTag(); err != nil {
		errs = append(errs, fmt.Errorf("query.culture: %w", err))
	}
	if c.Query.DefaultPageSize <= 0 {
		errs = append(errs, errors.New("query.default_page_size must be positive"))
	}
	if c.Query.MaxPageSize < c.Query.DefaultPageSize {
		errs = append(errs, errors.New("query.max_page_size must be at least query.default_page_size"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want json or console", c.Log.Format))
	}
	return errors.Join(errs...)
}
