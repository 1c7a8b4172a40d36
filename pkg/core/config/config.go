// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     config
// Description: Application configuration for the shcst command line tool
// Author:      msto63
// Created:     2026-10-03
// License:     MIT
// ============================================================================

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	mdwconfig "github.com/msto63/shcst/foundation/core/config"
	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/foundation/shell/binder"
	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/parser"
)

// EnvVar names the environment variable holding the config path
const EnvVar = "SHCST_CONFIG"

// Config holds the complete application configuration
type Config struct {
	Parser     ParserConfig     `toml:"parser" yaml:"parser"`
	Binder     binder.Config    `toml:"binder" yaml:"binder"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
	Check      CheckConfig      `toml:"check" yaml:"check"`
	Watch      WatchConfig      `toml:"watch" yaml:"watch"`
	Store      StoreConfig      `toml:"store" yaml:"store"`
	Crosscheck CrosscheckConfig `toml:"crosscheck" yaml:"crosscheck"`

	// path the configuration was loaded from, empty for defaults
	source string
}

// ParserConfig holds parse settings
type ParserConfig struct {
	Dialect       string   `toml:"dialect" yaml:"dialect"`
	MaxDepth      int      `toml:"max_depth" yaml:"max_depth"`
	CheckInterval int      `toml:"check_interval" yaml:"check_interval"`
	Shebang       *bool    `toml:"shebang" yaml:"shebang"`
	Debug         bool     `toml:"debug" yaml:"debug"`
	Timeout       Duration `toml:"timeout" yaml:"timeout"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	File   string `toml:"file" yaml:"file"`
}

// CheckConfig holds settings for batch checks
type CheckConfig struct {
	Workers    int      `toml:"workers" yaml:"workers"`
	Extensions []string `toml:"extensions" yaml:"extensions"`
	// FailOnErrors makes error nodes count as a failed check
	FailOnErrors bool `toml:"fail_on_errors" yaml:"fail_on_errors"`
	// Crosscheck runs the reference parsers for every checked file
	Crosscheck bool `toml:"crosscheck" yaml:"crosscheck"`
}

// WatchConfig holds settings for the file watcher
type WatchConfig struct {
	Debounce  Duration `toml:"debounce" yaml:"debounce"`
	Recursive bool     `toml:"recursive" yaml:"recursive"`
	CacheSize int      `toml:"cache_size" yaml:"cache_size"`
}

// StoreConfig holds settings for the check-run history
type StoreConfig struct {
	Path          string `toml:"path" yaml:"path"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days"`
}

// CrosscheckConfig selects the reference parsers
type CrosscheckConfig struct {
	Oracles []string `toml:"oracles" yaml:"oracles"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{Binder: binder.DefaultConfig()}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	cfg := &Config{Binder: binder.DefaultConfig()}
	err := mdwconfig.DecodeFile(path, cfg, mdwconfig.LoadOptions{
		Format: mdwconfig.FormatAuto,
		Strict: true,
	})
	if err != nil {
		return nil, err
	}
	cfg.source = path

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from SHCST_CONFIG or the default
// locations. Without any file the defaults are returned.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return Load(path)
	}
	path, err := mdwconfig.FindConfigFile(mdwconfig.DefaultDiscoveryOptions())
	if err != nil {
		if mdwerror.HasCode(err, mdwerror.CodeNotFound) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}

// Source returns the file the configuration came from
func (c *Config) Source() string {
	return c.source
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Parser
	if c.Parser.Dialect == "" {
		c.Parser.Dialect = dialect.Default.String()
	}
	if c.Parser.MaxDepth == 0 {
		c.Parser.MaxDepth = builder.DefaultMaxDepth
	}
	if c.Parser.CheckInterval == 0 {
		c.Parser.CheckInterval = builder.DefaultCheckInterval
	}
	if c.Parser.Shebang == nil {
		on := true
		c.Parser.Shebang = &on
	}
	if c.Parser.Timeout.Duration == 0 {
		c.Parser.Timeout.Duration = 10 * time.Second
	}

	// Logging
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	// Check
	if c.Check.Workers == 0 {
		c.Check.Workers = runtime.NumCPU()
	}
	if len(c.Check.Extensions) == 0 {
		c.Check.Extensions = []string{".sh", ".bash"}
	}

	// Watch
	if c.Watch.Debounce.Duration == 0 {
		c.Watch.Debounce.Duration = 200 * time.Millisecond
	}
	if c.Watch.CacheSize == 0 {
		c.Watch.CacheSize = 256
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath()
	}
	if c.Store.RetentionDays == 0 {
		c.Store.RetentionDays = 30
	}

	// Crosscheck
	if len(c.Crosscheck.Oracles) == 0 {
		c.Crosscheck.Oracles = []string{"mvdan", "treesitter"}
	}
	if c.Crosscheck.Timeout.Duration == 0 {
		c.Crosscheck.Timeout.Duration = 5 * time.Second
	}
}

func defaultStorePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "shcst", "runs.db")
	}
	return "./shcst-runs.db"
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.Store.Path = os.ExpandEnv(c.Store.Path)
	c.Logging.File = os.ExpandEnv(c.Logging.File)
}

// Validate checks value ranges and names
func (c *Config) Validate() error {
	invalid := func(field string, value interface{}, msg string) error {
		return mdwerror.New(msg).
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.Validate").
			WithDetail("field", field).
			WithDetail("value", value)
	}

	if _, err := dialect.ParseVersion(c.Parser.Dialect); err != nil {
		return invalid("parser.dialect", c.Parser.Dialect, "unknown dialect")
	}
	if c.Parser.MaxDepth < 16 {
		return invalid("parser.max_depth", c.Parser.MaxDepth, "max_depth must be at least 16")
	}
	if c.Parser.CheckInterval < 1 {
		return invalid("parser.check_interval", c.Parser.CheckInterval, "check_interval must be positive")
	}
	if c.Check.Workers < 1 {
		return invalid("check.workers", c.Check.Workers, "workers must be positive")
	}
	for _, ext := range c.Check.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return invalid("check.extensions", ext, "extensions must start with a dot")
		}
	}
	if c.Store.RetentionDays < 0 {
		return invalid("store.retention_days", c.Store.RetentionDays, "retention_days cannot be negative")
	}
	for _, o := range c.Crosscheck.Oracles {
		if o != "mvdan" && o != "treesitter" {
			return invalid("crosscheck.oracles", o, "unknown oracle")
		}
	}
	if _, err := binder.PolicyFromConfig(c.Binder); err != nil {
		return err
	}
	return nil
}

// ParserOptions converts the parser and binder sections into parse options
func (c *Config) ParserOptions() (parser.Options, error) {
	opts := parser.DefaultOptions()

	v, err := dialect.ParseVersion(c.Parser.Dialect)
	if err != nil {
		return opts, err
	}
	policy, err := binder.PolicyFromConfig(c.Binder)
	if err != nil {
		return opts, err
	}

	opts.Version = v
	opts.Policy = policy
	opts.Debug = c.Parser.Debug
	opts.MaxDepth = c.Parser.MaxDepth
	opts.CheckInterval = c.Parser.CheckInterval
	if c.Parser.Shebang != nil {
		opts.Shebang = *c.Parser.Shebang
	}
	return opts, nil
}
