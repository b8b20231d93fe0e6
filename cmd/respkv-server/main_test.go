package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/server/config"
)

func captureOverrides(t *testing.T, args ...string) map[string]any {
	t.Helper()

	var got map[string]any
	app := newApp()
	app.Action = func(c *cli.Context) error {
		got = flagOverrides(c)
		return nil
	}
	if err := app.Run(append([]string{"respkv-server"}, args...)); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	return got
}

// ============================================================
// Flag Tests
// ============================================================

func TestFlagOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]any
	}{
		{
			name: "no flags",
			want: map[string]any{},
		},
		{
			name: "listener",
			args: []string{"--addr", ":7000", "--max-connections", "8", "--rate-limit", "100"},
			want: map[string]any{
				"server.redis.addr":            ":7000",
				"server.redis.max_connections": 8,
				"server.redis.rate_limit":      100,
			},
		},
		{
			name: "logging",
			args: []string{"--log-level", "debug", "--log-format", "text"},
			want: map[string]any{
				"log.level":  "debug",
				"log.format": "text",
			},
		},
		{
			name: "admin address enables admin server",
			args: []string{"--admin-addr", "127.0.0.1:9999"},
			want: map[string]any{
				"server.admin.addr":    "127.0.0.1:9999",
				"server.admin.enabled": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := captureOverrides(t, tt.args...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("flagOverrides = %v, want %v", got, tt.want)
			}
		})
	}
}

// ============================================================
// Config Tests
// ============================================================

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", nil)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if !reflect.DeepEqual(cfg, config.Default()) {
		t.Errorf("loadConfig = %+v, want defaults", cfg)
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  redis:
    addr: "127.0.0.1:7001"
    max_connections: 16
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	cfg, err := loadConfig(path, map[string]any{"server.redis.addr": "127.0.0.1:7002"})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}

	if cfg.Server.Redis.Addr != "127.0.0.1:7002" {
		t.Errorf("Addr = %q, want flag value", cfg.Server.Redis.Addr)
	}
	if cfg.Server.Redis.MaxConnections != 16 {
		t.Errorf("MaxConnections = %d, want 16", cfg.Server.Redis.MaxConnections)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := loadConfig("", map[string]any{"log.level": "loud"}); err == nil {
		t.Error("expected error for invalid log level")
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing config file")
	}
}
