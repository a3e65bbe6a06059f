// Package config loads and validates Spritewire configuration.
//
// Configuration comes from three layers, each overriding the last:
// hardcoded defaults, a YAML file, and SPRITEWIRE_* environment
// variables. Secrets (the gateway token and per-source webhook secrets)
// are expected to arrive via the environment in production.
package config
