// Package config handles configuration management for changepack.
// It supports loading configuration from multiple sources including
// the embedded defaults, TOML files, environment variables, and
// command-line flags, merged with koanf.
package config
