package config

import (
	"errors"
	"strings"
)

// Validate checks the configuration and returns every problem found,
// joined. Each problem is a *ValidationError.
func (c *Config) Validate() error {
	var errs []error
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	if c.Server.Addr == "" {
		add("server.addr", "listen address is required", c.Server.Addr, ErrCodeRequiredMissing)
	}
	for _, d := range []struct {
		path  string
		value Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"routes.debounce", c.Routes.Debounce},
		{"routes.script_timeout", c.Routes.ScriptTimeout},
	} {
		if d.value.Duration < 0 {
			add(d.path, "must not be negative", d.value.Duration, ErrCodeOutOfRange)
		}
	}

	if c.Dispatcher.MaxRecursion < 1 {
		add("dispatcher.max_recursion", "must be at least 1", c.Dispatcher.MaxRecursion, ErrCodeOutOfRange)
	}

	if c.Routes.File == "" {
		add("routes.file", "route manifest is required", c.Routes.File, ErrCodeRequiredMissing)
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		add("logging.level", "must be debug, info, warn or error", c.Logging.Level, ErrCodeInvalidEnum)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format", "must be text or json", c.Logging.Format, ErrCodeInvalidEnum)
	}

	if c.Limits.Rate < 0 {
		add("limits.rate", "must not be negative", c.Limits.Rate, ErrCodeOutOfRange)
	}
	if c.Limits.Enabled() && c.Limits.Burst < 1 {
		add("limits.burst", "must be at least 1 when rate limiting", c.Limits.Burst, ErrCodeOutOfRange)
	}

	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		add("tracing.service_name", "required when tracing is enabled", c.Tracing.ServiceName, ErrCodeRequiredMissing)
	}

	return errors.Join(errs...)
}
