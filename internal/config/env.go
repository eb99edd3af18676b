package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// envSetter applies one variable to the configuration.
type envSetter func(c *Config, value string) error

// envMapping maps SWITCHYARD_* variables to settings.
var envMapping = map[string]envSetter{
	"SERVER_ADDR":             stringVar(func(c *Config) *string { return &c.Server.Addr }),
	"SERVER_READ_TIMEOUT":     durationVar(func(c *Config) *Duration { return &c.Server.ReadTimeout }),
	"SERVER_WRITE_TIMEOUT":    durationVar(func(c *Config) *Duration { return &c.Server.WriteTimeout }),
	"SERVER_SHUTDOWN_TIMEOUT": durationVar(func(c *Config) *Duration { return &c.Server.ShutdownTimeout }),

	"DISPATCHER_SHOW_INTERNAL_ACTIONS": boolVar(func(c *Config) *bool { return &c.Dispatcher.ShowInternalActions }),
	"DISPATCHER_METRICS":               boolVar(func(c *Config) *bool { return &c.Dispatcher.Metrics }),
	"DISPATCHER_RECOVER_PANICS":        boolVar(func(c *Config) *bool { return &c.Dispatcher.RecoverPanics }),
	"DISPATCHER_MAX_RECURSION":         intVar(func(c *Config) *int { return &c.Dispatcher.MaxRecursion }),

	"ROUTES_FILE":           stringVar(func(c *Config) *string { return &c.Routes.File }),
	"ROUTES_WATCH":          boolVar(func(c *Config) *bool { return &c.Routes.Watch }),
	"ROUTES_DEBOUNCE":       durationVar(func(c *Config) *Duration { return &c.Routes.Debounce }),
	"ROUTES_SCRIPT_TIMEOUT": durationVar(func(c *Config) *Duration { return &c.Routes.ScriptTimeout }),

	"LOG_LEVEL":  stringVar(func(c *Config) *string { return &c.Logging.Level }),
	"LOG_FORMAT": stringVar(func(c *Config) *string { return &c.Logging.Format }),

	"LIMITS_RATE":  floatVar(func(c *Config) *float64 { return &c.Limits.Rate }),
	"LIMITS_BURST": intVar(func(c *Config) *int { return &c.Limits.Burst }),

	"TRACING_ENABLED":      boolVar(func(c *Config) *bool { return &c.Tracing.Enabled }),
	"TRACING_SERVICE_NAME": stringVar(func(c *Config) *string { return &c.Tracing.ServiceName }),
}

// EnvVars returns the supported variable names, sorted.
func EnvVars() []string {
	out := make([]string, 0, len(envMapping))
	for name := range envMapping {
		out = append(out, EnvPrefix+name)
	}
	sort.Strings(out)
	return out
}

// ApplyEnv overrides settings from SWITCHYARD_* variables. Empty values are
// treated as set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, name := range EnvVars() {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		set := envMapping[strings.TrimPrefix(name, EnvPrefix)]
		if err := set(c, value); err != nil {
			return &ParseError{
				Path:    "$" + name,
				Message: err.Error(),
				Err:     err,
			}
		}
	}
	return nil
}

func stringVar(field func(*Config) *string) envSetter {
	return func(c *Config, value string) error {
		*field(c) = value
		return nil
	}
}

func boolVar(field func(*Config) *bool) envSetter {
	return func(c *Config, value string) error {
		switch strings.ToLower(value) {
		case "true", "yes", "on", "1":
			*field(c) = true
		case "false", "no", "off", "0", "":
			*field(c) = false
		default:
			return fmt.Errorf("invalid boolean %q", value)
		}
		return nil
	}
}

func intVar(field func(*Config) *int) envSetter {
	return func(c *Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		*field(c) = n
		return nil
	}
}

func floatVar(field func(*Config) *float64) envSetter {
	return func(c *Config, value string) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", value)
		}
		*field(c) = f
		return nil
	}
}

func durationVar(field func(*Config) *Duration) envSetter {
	return func(c *Config, value string) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q", value)
		}
		field(c).Duration = d
		return nil
	}
}
