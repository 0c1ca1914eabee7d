// Package config handles configuration loading and management for jsoncall.
//
// It provides functionality for:
//   - Loading configuration from .jsoncall.yaml, .jsoncall.yml or .jsoncall.json files
//   - Default configuration values
//   - Merging file configuration with command-line overrides
//   - Expanding {{variable}} references through an env.Resolver
//   - Translating configuration into transport, caller and token options
package config
