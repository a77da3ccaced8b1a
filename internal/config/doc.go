// Package config loads, validates, and defaults aquanexa's TOML configuration.
package config
