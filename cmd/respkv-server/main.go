package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/infra/buildinfo"
	"github.com/yndnr/respkv-go/internal/infra/confloader"
	"github.com/yndnr/respkv-go/internal/infra/shutdown"
	"github.com/yndnr/respkv-go/internal/server/config"
	"github.com/yndnr/respkv-go/internal/server/httpserver"
	"github.com/yndnr/respkv-go/internal/server/redisserver"
	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/telemetry/logger"
	"github.com/yndnr/respkv-go/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "respkv-server",
		Usage:   "Redis-compatible in-memory key-value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "RESP listen address (server.redis.addr)",
			},
			&cli.IntFlag{
				Name:  "max-connections",
				Usage: "Clients served concurrently (server.redis.max_connections)",
			},
			&cli.IntFlag{
				Name:  "rate-limit",
				Usage: "Commands per second per connection, 0 disables (server.redis.rate_limit)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (log.level)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: json, text (log.format)",
			},
			&cli.StringFlag{
				Name:  "admin-addr",
				Usage: "Enable the admin HTTP server on this address (server.admin.addr)",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	overrides := flagOverrides(c)

	cfg, err := loadConfig(configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting respkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	ctx, stop := shutdown.WithSignals(c.Context)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Server.Redis.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Redis.Addr, err)
	}

	metrics := metric.NewRegistry()
	store := memory.New().RegisterMetrics(metrics.Registerer())

	// Hooks run in reverse order of registration.
	shutdownHandler := shutdown.NewHandler(cfg.Shutdown.Timeout)
	shutdownHandler.OnShutdown("store", func(context.Context) error {
		log.Info("closing store")
		return store.Close()
	})

	var ready atomic.Bool

	if cfg.Server.Admin.Enabled {
		admin, err := startAdmin(cfg.Server.Admin.Addr, log, metrics, ready.Load)
		if err != nil {
			_ = ln.Close()
			_ = store.Close()
			return err
		}
		shutdownHandler.OnShutdown("admin", func(ctx context.Context) error {
			log.Info("shutting down admin server")
			return admin.Shutdown(ctx)
		})
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, overrides, log)
		if err != nil {
			log.Warn("config reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	srv := redisserver.New(redisserver.Config{
		Addr:           cfg.Server.Redis.Addr,
		MaxConnections: cfg.Server.Redis.MaxConnections,
		RateLimit:      cfg.Server.Redis.RateLimit,
		MaxFrameSize:   cfg.Server.Redis.MaxFrameSize,
	}, store, redisserver.WithLogger(log), redisserver.WithMetrics(metrics))

	ready.Store(true)
	context.AfterFunc(ctx, func() { ready.Store(false) })

	serveErr := srv.Serve(ctx, ln)
	ready.Store(false)

	log.Info("connections drained, running shutdown hooks")
	if err := shutdownHandler.Run(); err != nil {
		log.Error("shutdown error", "error", err)
		return errors.Join(serveErr, err)
	}
	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}

	log.Info("server stopped gracefully")
	return nil
}

// flagOverrides maps explicitly set flags onto config keys. Unset flags
// are left out so they do not mask the file or the environment.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("addr") {
		overrides["server.redis.addr"] = c.String("addr")
	}
	if c.IsSet("max-connections") {
		overrides["server.redis.max_connections"] = c.Int("max-connections")
	}
	if c.IsSet("rate-limit") {
		overrides["server.redis.rate_limit"] = c.Int("rate-limit")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		overrides["log.format"] = c.String("log-format")
	}
	if c.IsSet("admin-addr") {
		overrides["server.admin.addr"] = c.String("admin-addr")
		overrides["server.admin.enabled"] = true
	}
	return overrides
}

// loadConfig loads configuration from file, environment and flags.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	lc.Output = os.Stdout

	log, err := logger.New(lc)
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

func startAdmin(addr string, log logger.Logger, metrics *metric.Registry, ready func() bool) (*httpserver.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen admin %s: %w", addr, err)
	}

	admin := httpserver.New(addr, httpserver.NewRouter(&httpserver.RouterConfig{
		Logger:    log,
		Metrics:   metrics.Handler(),
		Ready:     ready,
		AccessLog: true,
	}))

	go func() {
		log.Info("admin server listening", "address", ln.Addr().String())
		if err := admin.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server error", "error", err)
		}
	}()

	return admin, nil
}

// watchConfig reloads the config file on change and applies the new log
// level. Other settings need a restart.
func watchConfig(path string, overrides map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		reloadLogLevel(path, overrides, log)
	})
	watcher.StartAsync()
	return watcher, nil
}

func reloadLogLevel(path string, overrides map[string]any, log logger.Logger) {
	cfg, err := loadConfig(path, overrides)
	if err != nil {
		log.Warn("config reload failed, keeping current settings", "error", err)
		return
	}

	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Warn("log level not applied", "level", cfg.Log.Level, "error", err)
		return
	}
	log.Info("log level changed", "level", cfg.Log.Level)
}
