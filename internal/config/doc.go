// Package config provides the configuration for switchyard.
//
// Configuration is resolved in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (cmd/switchyard)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← SWITCHYARD_*
//	├─────────────────────────────┤
//	│  2. TOML File               │  ← -config switchyard.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # File Format
//
//	[server]
//	addr = ":8080"
//	read_timeout = "10s"
//
//	[dispatcher]
//	show_internal_actions = false
//	metrics = true
//	max_recursion = 1000
//
//	[routes]
//	file = "routes.yaml"
//	watch = true
//	debounce = "250ms"
//
//	[logging]
//	level = "debug"
//	format = "json"
//
//	[limits]
//	rate = 100.0
//	burst = 20
//
//	[tracing]
//	enabled = true
//
// Unknown keys are rejected with a *ParseError carrying the position.
//
// # Environment Variables
//
// Each setting has a variable named after its section and key, for example
// SWITCHYARD_SERVER_ADDR, SWITCHYARD_ROUTES_WATCH or SWITCHYARD_LOG_LEVEL.
// EnvVars lists them all.
//
// # Validation
//
// Validate reports every invalid setting as a *ValidationError, joined
// with errors.Join.
package config
