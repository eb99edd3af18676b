package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dshills/switchyard/internal/dispatcher"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SWITCHYARD_"

// Config is the application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Routes     RoutesConfig     `toml:"routes"`
	Logging    LoggingConfig    `toml:"logging"`
	Limits     LimitsConfig     `toml:"limits"`
	Tracing    TracingConfig    `toml:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// DispatcherConfig mirrors dispatcher.Config.
type DispatcherConfig struct {
	ShowInternalActions bool `toml:"show_internal_actions"`
	Metrics             bool `toml:"metrics"`
	RecoverPanics       bool `toml:"recover_panics"`
	MaxRecursion        int  `toml:"max_recursion"`
}

// RoutesConfig locates the route manifest.
type RoutesConfig struct {
	File          string   `toml:"file"`
	Watch         bool     `toml:"watch"`
	Debounce      Duration `toml:"debounce"`
	ScriptTimeout Duration `toml:"script_timeout"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LimitsConfig configures request rate limiting. A zero rate disables it.
type LimitsConfig struct {
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

// TracingConfig enables OpenTelemetry spans around dispatch.
type TracingConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Dispatcher: DispatcherConfig{
			RecoverPanics: true,
			MaxRecursion:  dispatcher.DefaultConfig().MaxRecursion,
		},
		Routes: RoutesConfig{
			File:          "routes.yaml",
			Debounce:      Duration{250 * time.Millisecond},
			ScriptTimeout: Duration{5 * time.Second},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Limits: LimitsConfig{
			Burst: 1,
		},
		Tracing: TracingConfig{
			ServiceName: "switchyard",
		},
	}
}

// Options converts the section into dispatcher options.
func (c DispatcherConfig) Options() dispatcher.Config {
	cfg := dispatcher.DefaultConfig().
		WithShowInternalActions(c.ShowInternalActions).
		WithPanicRecovery(c.RecoverPanics).
		WithMaxRecursion(c.MaxRecursion)
	if c.Metrics {
		cfg = cfg.WithMetrics()
	}
	return cfg
}

// Limit returns the configured rate, or rate.Inf when limiting is off.
func (c LimitsConfig) Limit() rate.Limit {
	if c.Rate <= 0 {
		return rate.Inf
	}
	return rate.Limit(c.Rate)
}

// Enabled reports whether rate limiting is configured.
func (c LimitsConfig) Enabled() bool {
	return c.Rate > 0
}

// SlogLevel parses the level name.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// NewLogger builds a text or JSON logger writing to w.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Load builds the configuration from defaults, the TOML file at path (if
// path is not empty) and SWITCHYARD_* environment variables, in that order,
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Duration is a time.Duration written as a string ("250ms", "10s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
