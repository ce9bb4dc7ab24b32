// Package config loads and validates the DataBoard configuration from
// environment variables (prefix DATABOARD) layered over an optional YAML
// file and built-in defaults.
package config
