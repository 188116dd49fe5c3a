// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authcore settings from defaults, an optional YAML
// file and command-line flags, in increasing order of precedence.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/authcore/internal/credential"
	"github.com/holomush/authcore/internal/logging"
	"github.com/holomush/authcore/internal/store"
)

// DefaultSQLitePath is the database file used when the sqlite driver has no DSN.
const DefaultSQLitePath = "authcore.db"

// Config is the complete authcore configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database,omitempty" jsonschema:"description=Storage backend"`
	Session  SessionConfig  `koanf:"session,omitempty" jsonschema:"description=Session issuance"`
	Password PasswordConfig `koanf:"password,omitempty" jsonschema:"description=Password hashing"`
	Log      LogConfig      `koanf:"log,omitempty" jsonschema:"description=Logging"`
}

// DatabaseConfig selects and reaches the storage backend.
type DatabaseConfig struct {
	Driver         string        `koanf:"driver,omitempty" jsonschema:"enum=sqlite,enum=postgres,default=sqlite"`
	DSN            string        `koanf:"dsn,omitempty" jsonschema:"description=SQLite file path or postgres URL"`
	ConnectTimeout time.Duration `koanf:"connect_timeout,omitempty" jsonschema:"description=Total retry budget for the first connection"`
}

// SessionConfig controls issued sessions.
type SessionConfig struct {
	TTL time.Duration `koanf:"ttl,omitempty" jsonschema:"description=Lifetime of an issued session"`
}

// PasswordConfig controls how new passwords are hashed.
type PasswordConfig struct {
	Algorithm  string `koanf:"algorithm,omitempty" jsonschema:"enum=argon2id,enum=bcrypt,default=argon2id"`
	BcryptCost int    `koanf:"bcrypt_cost,omitempty" jsonschema:"minimum=4,maximum=31,default=12"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Format string `koanf:"format,omitempty" jsonschema:"enum=json,enum=text,default=json"`
	Level  string `koanf:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:         store.DriverSQLite,
			ConnectTimeout: 30 * time.Second,
		},
		Session: SessionConfig{TTL: store.DefaultSessionTTL},
		Password: PasswordConfig{
			Algorithm:  credential.AlgorithmArgon2id,
			BcryptCost: credential.DefaultBcryptCost,
		},
		Log: LogConfig{Format: "json", Level: "info"},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"driver":             "database.driver",
	"dsn":                "database.dsn",
	"connect-timeout":    "database.connect_timeout",
	"session-ttl":        "session.ttl",
	"password-algorithm": "password.algorithm",
	"bcrypt-cost":        "password.bcrypt_cost",
	"log-format":         "log.format",
	"log-level":          "log.level",
}

// BindFlags registers every configurable flag on fs with Default values.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("driver", d.Database.Driver, "storage driver (sqlite or postgres)")
	fs.String("dsn", d.Database.DSN, "sqlite file path or postgres URL (postgres falls back to $DATABASE_URL)")
	fs.Duration("connect-timeout", d.Database.ConnectTimeout, "retry budget for the first database connection")
	fs.Duration("session-ttl", d.Session.TTL, "lifetime of issued sessions")
	fs.String("password-algorithm", d.Password.Algorithm, "hash algorithm for new passwords (argon2id or bcrypt)")
	fs.Int("bcrypt-cost", d.Password.BcryptCost, "bcrypt work factor")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
}

// Load builds a Config from Default, the YAML file at path (skipped when
// path is empty) and the flags in fs (skipped when fs is nil). The file is
// checked against the configuration schema before it is read. The result
// is validated.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.Code("CONFIG_SCHEMA_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDerived fills settings whose defaults depend on other settings.
func (c *Config) applyDerived() {
	if c.Database.DSN != "" {
		return
	}
	switch c.Database.Driver {
	case store.DriverSQLite:
		c.Database.DSN = DefaultSQLitePath
	case store.DriverPostgres:
		c.Database.DSN = os.Getenv("DATABASE_URL")
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(key string, value any, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).With("value", value).Errorf(format, args...)
	}

	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return invalid("database.driver", c.Database.Driver, "unknown driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return invalid("database.dsn", "", "dsn is required for driver %s", c.Database.Driver)
	}
	if c.Database.ConnectTimeout <= 0 {
		return invalid("database.connect_timeout", c.Database.ConnectTimeout.String(), "connect timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		return invalid("session.ttl", c.Session.TTL.String(), "session ttl must be positive")
	}
	switch c.Password.Algorithm {
	case credential.AlgorithmArgon2id, credential.AlgorithmBcrypt:
	default:
		return invalid("password.algorithm", c.Password.Algorithm, "unknown password algorithm %q", c.Password.Algorithm)
	}
	if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
		return invalid("password.bcrypt_cost", c.Password.BcryptCost,
			"bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format", c.Log.Format, "unknown log format %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, "unknown log level %q", c.Log.Level)
	}
	return nil
}
