package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// CLIConfig is the configuration for netverify-cli.
type CLIConfig struct {
	Engine  EngineConfig  `koanf:"engine" yaml:"engine"`
	Session SessionConfig `koanf:"session" yaml:"session"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
	Output  OutputConfig  `koanf:"output" yaml:"output"`
	State   StateConfig   `koanf:"state" yaml:"state"`
	Metrics MetricsConfig `koanf:"metrics" yaml:"metrics"`
}

// EngineConfig holds the verification engine endpoint settings.
type EngineConfig struct {
	Address string `koanf:"address" yaml:"address"`

	// APIKey is plain text in memory and sealed on disk.
	APIKey string `koanf:"api_key" yaml:"api_key,omitempty"`

	// Timeout is written as a duration string by MarshalYAML.
	Timeout time.Duration `koanf:"timeout" yaml:"-"`

	// RateLimit caps engine calls per second; 0 is unlimited.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	Burst     int     `koanf:"burst" yaml:"burst"`

	CAFile     string `koanf:"ca_file" yaml:"ca_file,omitempty"`
	CertFile   string `koanf:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile    string `koanf:"key_file" yaml:"key_file,omitempty"`
	ServerName string `koanf:"server_name" yaml:"server_name,omitempty"`
	Insecure   bool   `koanf:"insecure" yaml:"insecure,omitempty"`
}

// MarshalYAML writes Timeout as "5m0s" rather than nanoseconds.
func (e EngineConfig) MarshalYAML() (any, error) {
	type plain EngineConfig
	return struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}{plain(e), e.Timeout.String()}, nil
}

// SessionConfig seeds the session when no persisted context exists.
type SessionConfig struct {
	Network   string `koanf:"network" yaml:"network,omitempty"`
	Snapshot  string `koanf:"snapshot" yaml:"snapshot,omitempty"`
	CacheSize int    `koanf:"cache_size" yaml:"cache_size"`
}

// LogConfig selects the CLI log level and handler format.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// OutputConfig selects the result formatter.
type OutputConfig struct {
	Format string `koanf:"format" yaml:"format"`
}

// StateConfig locates the local badger state.
type StateConfig struct {
	Dir string `koanf:"dir" yaml:"dir"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `koanf:"textfile" yaml:"textfile,omitempty"`
}

// Default values.
const (
	DefaultAddress   = "localhost:9996"
	DefaultTimeout   = 5 * time.Minute
	DefaultCacheSize = 256
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultOutput    = "table"
)

var (
	outputFormats = []string{"table", "json", "yaml"}
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
)

// HomeDir returns ~/.netverify.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".netverify")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "cli.yaml")
}

// DefaultValues returns the flat dotted-key defaults. Its keys are the
// complete set of settable keys.
func DefaultValues() map[string]any {
	return map[string]any{
		"engine.address":     DefaultAddress,
		"engine.api_key":     "",
		"engine.timeout":     DefaultTimeout.String(),
		"engine.rate_limit":  0.0,
		"engine.burst":       1,
		"engine.ca_file":     "",
		"engine.cert_file":   "",
		"engine.key_file":    "",
		"engine.server_name": "",
		"engine.insecure":    false,
		"session.network":    "",
		"session.snapshot":   "",
		"session.cache_size": DefaultCacheSize,
		"log.level":          DefaultLogLevel,
		"log.format":         DefaultLogFormat,
		"output.format":      DefaultOutput,
		"state.dir":          filepath.Join(HomeDir(), "state"),
		"metrics.textfile":   "",
	}
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	return slices.Sorted(maps.Keys(DefaultValues()))
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Engine: EngineConfig{
			Address: DefaultAddress,
			Timeout: DefaultTimeout,
			Burst:   1,
		},
		Session: SessionConfig{CacheSize: DefaultCacheSize},
		Log:     LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Output:  OutputConfig{Format: DefaultOutput},
		State:   StateConfig{Dir: filepath.Join(HomeDir(), "state")},
	}
}

// Validate checks enumerated and numeric settings.
func (c *CLIConfig) Validate() error {
	if c.Engine.Address == "" {
		return domain.ErrMissingArgument.WithDetails("engine.address")
	}
	if c.Engine.Timeout < 0 {
		return domain.ErrInvalidArgument.WithDetails("engine.timeout must not be negative")
	}
	if c.Engine.RateLimit < 0 {
		return domain.ErrInvalidArgument.WithDetails("engine.rate_limit must not be negative")
	}
	if c.Session.CacheSize < 0 {
		return domain.ErrInvalidArgument.WithDetails("session.cache_size must not be negative")
	}
	if !slices.Contains(outputFormats, c.Output.Format) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("output.format %q: want one of %v", c.Output.Format, outputFormats))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("log.level %q: want one of %v", c.Log.Level, logLevels))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("log.format %q: want one of %v", c.Log.Format, logFormats))
	}
	return nil
}

// SecretKeyPath returns the sealing key file path.
func (c *CLIConfig) SecretKeyPath() string {
	return filepath.Join(c.State.Dir, "secret.key")
}

// Values returns the configuration as flat dotted keys, the inverse of
// DefaultValues. The API key is returned as stored in memory.
func (c *CLIConfig) Values() map[string]any {
	return map[string]any{
		"engine.address":     c.Engine.Address,
		"engine.api_key":     c.Engine.APIKey,
		"engine.timeout":     c.Engine.Timeout.String(),
		"engine.rate_limit":  c.Engine.RateLimit,
		"engine.burst":       c.Engine.Burst,
		"engine.ca_file":     c.Engine.CAFile,
		"engine.cert_file":   c.Engine.CertFile,
		"engine.key_file":    c.Engine.KeyFile,
		"engine.server_name": c.Engine.ServerName,
		"engine.insecure":    c.Engine.Insecure,
		"session.network":    c.Session.Network,
		"session.snapshot":   c.Session.Snapshot,
		"session.cache_size": c.Session.CacheSize,
		"log.level":          c.Log.Level,
		"log.format":         c.Log.Format,
		"output.format":      c.Output.Format,
		"state.dir":          c.State.Dir,
		"metrics.textfile":   c.Metrics.Textfile,
	}
}
