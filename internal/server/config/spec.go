package config

import "time"

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Log      LogSection      `koanf:"log"`
	Shutdown ShutdownSection `koanf:"shutdown"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	Admin AdminConfig `koanf:"admin"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// MaxConnections is the number of clients served concurrently.
	MaxConnections int `koanf:"max_connections"`

	// RateLimit is commands per second per connection. 0 disables it.
	RateLimit int `koanf:"rate_limit"`

	// MaxFrameSize is the largest accepted request frame in bytes.
	MaxFrameSize int `koanf:"max_frame_size"`
}

// AdminConfig configures the HTTP health and metrics endpoint.
type AdminConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ShutdownSection configures graceful shutdown.
type ShutdownSection struct {
	// Timeout bounds how long shutdown hooks may run after the listener
	// has drained.
	Timeout time.Duration `koanf:"timeout"`
}
