package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Seed     SeedConfig     `yaml:"seed"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                   int           `yaml:"port"`
	APIPrefix              string        `yaml:"api_prefix"`
	RateLimitPerSec        float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst         int           `yaml:"rate_limit_burst"`
	ShutdownTimeoutSeconds int           `yaml:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string        `yaml:"driver"`
	DSN                    string        `yaml:"dsn"`
	Host                   string        `yaml:"host"`
	Port                   int           `yaml:"port"`
	User                   string        `yaml:"user"`
	Password               string        `yaml:"password"`
	Name                   string        `yaml:"name"`
	SSLMode                string        `yaml:"sslmode"`
	MaxOpenConns           int           `yaml:"max_open_conns"`
	MaxIdleConns           int           `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `yaml:"conn_max_lifetime_minutes"`
	AcquireTimeoutMillis   int           `yaml:"acquire_timeout_ms"`
	AcquireTimeout         time.Duration `yaml:"-"`
	LogLevel               string        `yaml:"log_level"`
}

// SeedConfig controls loading of the sample units and readings at startup.
type SeedConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// ShouldLoad reports whether seed data is loaded. Seeding is on unless
// explicitly disabled.
func (s SeedConfig) ShouldLoad() bool {
	return s.Enabled == nil || *s.Enabled
}

// Load reads the configuration from the given path and applies environment
// overrides. A missing file is not an error; the configuration then comes
// from defaults and the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			decoder := yaml.NewDecoder(f)
			if err := decoder.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			log.Printf("config file %s not found; using environment and defaults", path)
		default:
			return nil, err
		}
	}

	env, err := newEnv()
	if err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKeys maps configuration keys to the environment variables that override
// them.
var envKeys = map[string]string{
	"database.driver":   "DB_DRIVER",
	"database.dsn":      "DB_DSN",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.sslmode":  "DB_SSLMODE",
	"server.port":       "SERVER_PORT",
	"seed.enabled":      "SEED_ENABLED",
}

func newEnv() (*viper.Viper, error) {
	env := viper.New()
	for key, name := range envKeys {
		if err := env.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}
	return env, nil
}

// applyEnv overrides cfg with every bound variable that is set and non-empty.
func applyEnv(cfg *Config, env *viper.Viper) error {
	str := func(key string, dst *string) {
		if env.IsSet(key) {
			*dst = env.GetString(key)
		}
	}
	num := func(key string, dst *int) error {
		if !env.IsSet(key) {
			return nil
		}
		n, err := cast.ToIntE(env.Get(key))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKeys[key], env.GetString(key), err)
		}
		*dst = n
		return nil
	}

	str("database.driver", &cfg.Database.Driver)
	str("database.dsn", &cfg.Database.DSN)
	str("database.host", &cfg.Database.Host)
	str("database.user", &cfg.Database.User)
	str("database.password", &cfg.Database.Password)
	str("database.name", &cfg.Database.Name)
	str("database.sslmode", &cfg.Database.SSLMode)
	if err := num("database.port", &cfg.Database.Port); err != nil {
		return err
	}
	if err := num("server.port", &cfg.Server.Port); err != nil {
		return err
	}
	if env.IsSet("seed.enabled") {
		enabled, err := cast.ToBoolE(env.Get("seed.enabled"))
		if err != nil {
			return fmt.Errorf("invalid SEED_ENABLED %q: %w", env.GetString("seed.enabled"), err)
		}
		cfg.Seed.Enabled = &enabled
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.APIPrefix == "" {
		cfg.Server.APIPrefix = "/v1"
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 5
	}
	cfg.Server.ShutdownTimeout = time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second

	db := &cfg.Database
	if db.Driver == "" {
		db.Driver = DriverPostgres
	}
	if db.Host == "" {
		db.Host = "127.0.0.1"
	}
	if db.Port <= 0 {
		db.Port = 5432
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.MaxOpenConns <= 0 {
		db.MaxOpenConns = 20
	}
	if db.MaxIdleConns <= 0 {
		db.MaxIdleConns = 5
	}
	if db.MaxIdleConns > db.MaxOpenConns {
		db.MaxIdleConns = db.MaxOpenConns
	}
	if db.ConnMaxLifetimeMinutes <= 0 {
		db.ConnMaxLifetimeMinutes = 30
	}
	if db.AcquireTimeoutMillis <= 0 {
		db.AcquireTimeoutMillis = 2000
	}
	db.AcquireTimeout = time.Duration(db.AcquireTimeoutMillis) * time.Millisecond
	if db.LogLevel == "" {
		db.LogLevel = "warn"
	}
}

// Validate reports every missing or invalid setting in one error.
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			if c.Database.User == "" {
				problems = append(problems, "DB_USER is required")
			}
			if c.Database.Password == "" {
				problems = append(problems, "DB_PASSWORD is required")
			}
			if c.Database.Name == "" {
				problems = append(problems, "DB_NAME is required")
			}
		}
	case DriverSQLite:
		if c.Database.DSN == "" {
			problems = append(problems, "DB_DSN is required for the sqlite driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ConnString returns the DSN for the configured driver. An explicit DSN
// always wins over the individual connection fields.
func (d *DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Redacted returns the connection target without credentials, for logging.
func (d *DatabaseConfig) Redacted() string {
	if d.Driver == DriverSQLite {
		return "sqlite " + d.DSN
	}
	if d.DSN != "" {
		return "postgres (explicit dsn)"
	}
	return fmt.Sprintf("postgres host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}
