// Package config loads the runtime configuration of the audit manager from
// flags, environment variables (AUDIT_*) and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rgaa-audit/audit-manager/pkg/cache"
	"github.com/rgaa-audit/audit-manager/pkg/migrations"
)

// EnvPrefix is prepended to every environment variable, e.g. AUDIT_DB_DSN.
const EnvPrefix = "AUDIT"

// Config is the resolved process configuration.
type Config struct {
	Database    DatabaseConfig
	Listen      string
	LogMode     string
	CORSOrigins []string
	Cache       cache.Config
}

// DatabaseConfig selects the SQL dialect and connection string.
type DatabaseConfig struct {
	Dialect migrations.Dialect
	DSN     string
}

// flagKeys maps CLI flag names to viper keys.
var flagKeys = map[string]string{
	"config":       "config",
	"db-dialect":   "db.dialect",
	"db-dsn":       "db.dsn",
	"log-mode":     "log.mode",
	"listen":       "listen",
	"cors-origins": "cors.origins",
	"cache":        "cache.enabled",
}

// NewViper returns a viper instance wired to AUDIT_* environment variables
// with the built-in defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db.dialect", string(migrations.DialectMySQL))
	v.SetDefault("log.mode", "development")
	v.SetDefault("listen", ":8080")
	v.SetDefault("cors.origins", []string{"*"})

	c := cache.DefaultConfig()
	v.SetDefault("cache.enabled", c.Enabled)
	v.SetDefault("cache.forms_ttl", c.FormsTTL)
	v.SetDefault("cache.criteria_ttl", c.CriteriaTTL)
	v.SetDefault("cache.max_size", c.MaxSize)
	return v
}

// BindFlags binds every known flag present in flags to its viper key.
// Flags that are not defined in the set are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load resolves the configuration. When the "config" key points to a file it
// is read first; flags and environment variables still take precedence.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	dialect, err := migrations.ParseDialect(v.GetString("db.dialect"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Dialect: dialect,
			DSN:     v.GetString("db.dsn"),
		},
		Listen:      v.GetString("listen"),
		LogMode:     v.GetString("log.mode"),
		CORSOrigins: v.GetStringSlice("cors.origins"),
		Cache: cache.Config{
			Enabled:     v.GetBool("cache.enabled"),
			FormsTTL:    v.GetDuration("cache.forms_ttl"),
			CriteriaTTL: v.GetDuration("cache.criteria_ttl"),
			MaxSize:     v.GetInt("cache.max_size"),
		},
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database DSN is required (use --db-dsn or %s_DB_DSN)", EnvPrefix)
	}
	return cfg, nil
}
