// Package config handles configuration loading and management for hitfetch.
//
// It provides functionality for:
//   - Loading configuration from .hitfetch.json or .hitfetch.yaml files
//   - Default configuration values
//   - Merging configuration layers
package config
