package config

import (
	"time"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
	"github.com/yndnr/respkv-go/internal/server/redisserver"
)

// Default configuration values.
const (
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultMaxConnections = redisserver.DefaultMaxConnections
	DefaultMaxFrameSize   = resp.DefaultMaxFrameSize

	DefaultAdminAddr = "127.0.0.1:9121"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultShutdownTimeout = 30 * time.Second
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:           DefaultRedisAddr,
				MaxConnections: DefaultMaxConnections,
				MaxFrameSize:   DefaultMaxFrameSize,
			},
			Admin: AdminConfig{
				Enabled: false,
				Addr:    DefaultAdminAddr,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Shutdown: ShutdownSection{
			Timeout: DefaultShutdownTimeout,
		},
	}
}
