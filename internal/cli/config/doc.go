// Package config provides the respkv-cli configuration.
//
// Settings come from ~/.respkv/cli.yaml and RESPKV_CLI_* environment
// variables, loaded through confloader. Command-line flags override both.
package config
