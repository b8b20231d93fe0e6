package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/respkv-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if cfg.Shutdown.Timeout <= 0 {
		return errors.New("shutdown.timeout must be positive")
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		return err
	}
	if cfg.Redis.MaxConnections < 1 {
		return errors.New("server.redis.max_connections must be at least 1")
	}
	if cfg.Redis.RateLimit < 0 {
		return errors.New("server.redis.rate_limit must not be negative")
	}
	if cfg.Redis.MaxFrameSize < 64 {
		return errors.New("server.redis.max_frame_size must be at least 64 bytes")
	}

	if cfg.Admin.Enabled {
		if err := verifyAddr("server.admin.addr", cfg.Admin.Addr); err != nil {
			return err
		}
		if cfg.Admin.Addr == cfg.Redis.Addr {
			return errors.New("server.admin.addr must differ from server.redis.addr")
		}
	}
	return nil
}

func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}
