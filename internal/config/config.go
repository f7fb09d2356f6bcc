// Package config provides configuration types, defaults and persistence for triad.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/triad/internal/flags"
	"github.com/zjrosen/triad/internal/log"
	"github.com/zjrosen/triad/internal/tracing"
)

// DefaultPath is where `triad config init` writes, and where the CLI looks first.
const DefaultPath = ".triad/config.yaml"

// Config holds all configuration options for triad.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Tracing  tracing.Config `mapstructure:"tracing"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Output   OutputConfig   `mapstructure:"output"`
	// Flags overrides feature flag defaults by name; see package flags.
	Flags map[string]bool `mapstructure:"flags"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Level   string `mapstructure:"level"` // "debug" (default), "info", "warn" or "error"
}

// DispatchConfig tunes the dispatch loop.
type DispatchConfig struct {
	// MaxDepth limits handler nesting; 0 means unlimited.
	MaxDepth int `mapstructure:"max_depth"`
	// SlowHandlerThreshold is when a dispatch step is logged as slow.
	SlowHandlerThreshold time.Duration `mapstructure:"slow_handler_threshold"`
}

// MetricsConfig controls dispatch metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Listen serves /metrics on this address while `triad run --watch` is active.
	Listen string `mapstructure:"listen"`
}

// OutputConfig controls how the tally board is rendered.
type OutputConfig struct {
	Width int  `mapstructure:"width"`
	Plain bool `mapstructure:"plain"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Enabled: false,
			Path:    "triad.log",
			Level:   "debug",
		},
		Dispatch: DispatchConfig{
			MaxDepth:             0,
			SlowHandlerThreshold: 100 * time.Millisecond,
		},
		Tracing: tracing.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Output: OutputConfig{
			Width: 40,
			Plain: false,
		},
		Flags: flags.Defaults(),
	}
}

// SetDefaults registers every default with v so that keys missing from the file
// still unmarshal to their default values.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log.enabled", d.Log.Enabled)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("dispatch.max_depth", d.Dispatch.MaxDepth)
	v.SetDefault("dispatch.slow_handler_threshold", d.Dispatch.SlowHandlerThreshold)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
	v.SetDefault("output.width", d.Output.Width)
	v.SetDefault("output.plain", d.Output.Plain)
	for name, value := range d.Flags {
		v.SetDefault("flags."+name, value)
	}
}

// Load reads the config file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// DefaultTracesFilePath returns the trace file used when tracing.file_path is empty.
func DefaultTracesFilePath() string {
	return filepath.Join(filepath.Dir(DefaultPath), "traces", "traces.jsonl")
}

// Validate checks every section. Empty values are valid; they fall back to defaults.
func Validate(cfg Config) error {
	if err := ValidateLog(cfg.Log); err != nil {
		return err
	}
	if err := ValidateDispatch(cfg.Dispatch); err != nil {
		return err
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	return ValidateOutput(cfg.Output)
}

// ValidateLog checks the log section.
func ValidateLog(l LogConfig) error {
	if _, err := log.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if l.Enabled && l.Path == "" {
		return fmt.Errorf("log.path is required when logging is enabled")
	}
	return nil
}

// ValidateDispatch checks the dispatch section.
func ValidateDispatch(d DispatchConfig) error {
	if d.MaxDepth < 0 {
		return fmt.Errorf("dispatch.max_depth must not be negative, got %d", d.MaxDepth)
	}
	if d.SlowHandlerThreshold < 0 {
		return fmt.Errorf("dispatch.slow_handler_threshold must not be negative, got %s", d.SlowHandlerThreshold)
	}
	return nil
}

// ValidateTracing checks the tracing section. The file_path requirement is
// relaxed because the CLI substitutes DefaultTracesFilePath.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// ValidateOutput checks the output section.
func ValidateOutput(o OutputConfig) error {
	if o.Width < 0 {
		return fmt.Errorf("output.width must not be negative, got %d", o.Width)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# triad configuration

# Debug log (also enabled by --debug)
log:
  enabled: false
  path: triad.log
  level: debug        # debug, info, warn or error

dispatch:
  max_depth: 0                  # Limit on nested handler calls (0 = unlimited)
  slow_handler_threshold: 100ms # Log a warning for dispatch steps slower than this

# OpenTelemetry tracing
tracing:
  enabled: false
  exporter: file      # none, file, stdout or otlp
  file_path: ""       # default: .triad/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
  service_name: triad

# Dispatch metrics (also enabled by --metrics)
metrics:
  enabled: false
  # listen: localhost:9464  # Serve /metrics while --watch is running

# Tally board rendering
output:
  width: 40
  plain: false        # Strip colors (also --plain)

# Feature flags
flags:
  render-cache: true    # Reuse rendered boards between runs
  abort-on-depth: true  # Fail the run, rather than crash, when dispatch.max_depth is exceeded
`
}

// WriteDefaultConfig creates a config file at the given path with default settings
// and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
