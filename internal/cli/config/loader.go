package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/respkv-go/internal/cli/output"
	"github.com/yndnr/respkv-go/internal/infra/confloader"
)

// EnvPrefix is the environment variable prefix for CLI settings.
const EnvPrefix = "RESPKV_CLI_"

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".respkv", "cli.yaml")
}

// Load loads CLI configuration from path and the environment on top of
// the defaults. A missing file is not an error.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	opts := []confloader.Option{confloader.WithEnvPrefix(EnvPrefix)}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, confloader.WithConfigFile(path))
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, readable only by the owner.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Verify checks that cfg is usable.
func Verify(cfg *CLIConfig) error {
	if _, _, err := net.SplitHostPort(cfg.Server); err != nil {
		return fmt.Errorf("server: invalid address %q: %w", cfg.Server, err)
	}
	if _, err := output.ParseFormat(cfg.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout: must not be negative, got %s", cfg.Timeout)
	}
	return nil
}
