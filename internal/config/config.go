// Package config provides Viper-based configuration loading for the game server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RPG_TELNET_PORT.
const EnvPrefix = "RPG"

// DatabaseConfig holds PostgreSQL settings for the run history store.
type DatabaseConfig struct {
	// Enabled turns run recording on. With it off no connection is made.
	Enabled         bool          `mapstructure:"enabled"`
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
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// ReadTimeout disconnects a client idle for this long at any prompt.
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxSessions caps concurrent connections; 0 means unlimited.
	MaxSessions int `mapstructure:"max_sessions"`
}

// Addr returns the "host:port" listen address.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path.
	Output string `mapstructure:"output"`
}

// GameConfig holds the rules content and pacing settings.
type GameConfig struct {
	// RosterDir holds heroes.yaml, enemies.yaml and bosses.yaml.
	RosterDir string `mapstructure:"roster_dir"`
	// ScriptDir holds Lua special-ability scripts; empty disables scripting.
	ScriptDir string `mapstructure:"script_dir"`
	// MoveTimeout bounds how long a player may take to answer a prompt.
	MoveTimeout time.Duration `mapstructure:"move_timeout"`
	// ScriptInstructionLimit caps Lua opcodes per ability call; 0 uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
	// Seed makes enemy decisions reproducible when non-zero.
	Seed int64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Telnet   TelnetConfig   `mapstructure:"telnet"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateDatabase(c.Database),
		validateTelnet(c.Telnet),
		validateLogging(c.Logging),
		validateGame(c.Game),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	if !d.Enabled {
		return nil
	}
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
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must be between 0 and database.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 1 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 || t.WriteTimeout < 0 {
		errs = append(errs, "telnet timeouts must not be negative")
	}
	if t.MaxSessions < 0 {
		errs = append(errs, fmt.Sprintf("telnet.max_sessions must be >= 0, got %d", t.MaxSessions))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
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
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.RosterDir == "" {
		errs = append(errs, "game.roster_dir must not be empty")
	}
	if g.MoveTimeout < 0 {
		errs = append(errs, "game.move_timeout must not be negative")
	}
	if g.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("game.script_instruction_limit must be >= 0, got %d", g.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies RPG_ environment
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and environment overrides
// installed but no config file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rpg")
	v.SetDefault("database.password", "rpg")
	v.SetDefault("database.name", "rpg")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "5m")
	v.SetDefault("telnet.write_timeout", "30s")
	v.SetDefault("telnet.max_sessions", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("game.roster_dir", "content/roster")
	v.SetDefault("game.script_dir", "content/scripts")
	v.SetDefault("game.move_timeout", "60s")
	v.SetDefault("game.script_instruction_limit", 100000)
	v.SetDefault("game.seed", 0)
}
