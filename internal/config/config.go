// Package config provides Viper-based configuration loading for the equipment
// market tooling.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/equipment-market/internal/market"
)

// History backends.
const (
	HistoryMemory   = "memory"
	HistoryPostgres = "postgres"
	HistoryRedis    = "redis"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds settings for the equipment cache and the redis history
// backend.
type RedisConfig struct {
	// Addr is the "host:port" of the Redis server. Empty disables Redis.
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	// EquipmentTTL is how long a cached equipment record is kept.
	EquipmentTTL time.Duration `mapstructure:"equipment_ttl"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// PricingConfig locates the shared pricing artifact.
type PricingConfig struct {
	// Artifact is the path to the versioned pricing YAML.
	Artifact string `mapstructure:"artifact"`
	// VerifyOnStart makes startup fail when the artifact diverges from the compiled table.
	VerifyOnStart bool `mapstructure:"verify_on_start"`
}

// ChainConfig holds marketplace contract settings.
type ChainConfig struct {
	// ContractAddress is the deployed EquipmentMarket contract.
	ContractAddress string `mapstructure:"contract_address"`
	// HistoryBackend selects where transaction history is kept: "memory",
	// "postgres", or "redis". Memory history does not outlive the process.
	HistoryBackend string `mapstructure:"history_backend"`
	// HistoryKey is the Redis list holding history for the redis backend.
	HistoryKey string `mapstructure:"history_key"`
	// HistoryLimit bounds the in-memory history and the default page size.
	HistoryLimit int `mapstructure:"history_limit"`
	// Snapshot is the path of an exported contract state file served by the
	// read commands. Empty leaves the chain offline.
	Snapshot string `mapstructure:"snapshot"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Chain    ChainConfig    `mapstructure:"chain"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateChain(c.Chain); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Chain.HistoryBackend == HistoryPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Chain.HistoryBackend == HistoryRedis && !c.Redis.Enabled() {
		errs = append(errs, "chain.history_backend redis requires redis.addr")
	}
	if err := validateRedis(c.Redis); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Pricing.Artifact == "" {
		errs = append(errs, "pricing.artifact must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateChain(ch ChainConfig) error {
	var errs []string
	if !market.ValidAddress(ch.ContractAddress) {
		errs = append(errs, fmt.Sprintf("chain.contract_address must be a 0x-prefixed 20-byte hex address, got %q", ch.ContractAddress))
	}
	validBackends := map[string]bool{HistoryMemory: true, HistoryPostgres: true, HistoryRedis: true}
	if !validBackends[ch.HistoryBackend] {
		errs = append(errs, fmt.Sprintf("chain.history_backend must be one of [memory, postgres, redis], got %q", ch.HistoryBackend))
	}
	if ch.HistoryBackend == HistoryRedis && ch.HistoryKey == "" {
		errs = append(errs, "chain.history_key must not be empty")
	}
	if ch.HistoryLimit < 1 {
		errs = append(errs, fmt.Sprintf("chain.history_limit must be >= 1, got %d", ch.HistoryLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the database section on its own, for tools that need a
// connection regardless of the history backend.
func (d DatabaseConfig) Validate() error {
	return validateDatabase(d)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRedis(r RedisConfig) error {
	if !r.Enabled() {
		return nil
	}
	var errs []string
	if r.DB < 0 {
		errs = append(errs, fmt.Sprintf("redis.db must be >= 0, got %d", r.DB))
	}
	if r.PoolSize < 0 {
		errs = append(errs, fmt.Sprintf("redis.pool_size must be >= 0, got %d", r.PoolSize))
	}
	if r.EquipmentTTL <= 0 {
		errs = append(errs, "redis.equipment_ttl must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with EQUIP_ prefix
	v.SetEnvPrefix("EQUIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("viper instance must not be nil")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default settings.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "equip")
	v.SetDefault("database.password", "equip")
	v.SetDefault("database.name", "equip")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.equipment_ttl", "24h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("pricing.artifact", "configs/pricing.yaml")
	v.SetDefault("pricing.verify_on_start", true)

	v.SetDefault("chain.contract_address", "0x8d1f44e9c0b3d71c363be0a7c499858ee3471c7b")
	v.SetDefault("chain.history_backend", HistoryMemory)
	v.SetDefault("chain.history_key", "equipment-market:history")
	v.SetDefault("chain.history_limit", 50)
	v.SetDefault("chain.snapshot", "")
}
