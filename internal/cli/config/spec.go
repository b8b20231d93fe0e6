package config

import "time"

// CLIConfig is the configuration for respkv-cli.
type CLIConfig struct {
	// Server is the host:port of the RESP listener.
	Server string `koanf:"server" yaml:"server"`

	// Output is the reply format: raw, json or yaml.
	Output string `koanf:"output" yaml:"output"`

	// Timeout bounds one request. Zero disables it.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`

	// HistoryFile is where the interactive mode keeps its history.
	// Empty means ~/.respkv/history.
	HistoryFile string `koanf:"history_file" yaml:"history_file,omitempty"`
}

// Defaults.
const (
	DefaultServer  = "127.0.0.1:6379"
	DefaultOutput  = "raw"
	DefaultTimeout = 5 * time.Second
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  DefaultServer,
		Output:  DefaultOutput,
		Timeout: DefaultTimeout,
	}
}
