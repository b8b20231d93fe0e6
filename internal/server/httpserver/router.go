package httpserver

import (
	"net/http"

	"github.com/yndnr/respkv-go/internal/server/httpserver/handler"
	"github.com/yndnr/respkv-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	// Logger for panics and access logs. Defaults to logger.Default().
	Logger logger.Logger

	// Metrics serves GET /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// Ready reports whether the RESP listener is accepting. Nil means
	// always ready.
	Ready func() bool

	// AccessLog enables one log line per request.
	AccessLog bool
}

// NewRouter creates the admin router with all routes and middleware.
//
// Order: RequestID -> Recover -> AccessLog -> routes.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}

	h := handler.New(l, cfg.Ready)

	mux := http.NewServeMux()
	mux.Handle("GET /health", h)
	mux.Handle("GET /ready", h)
	mux.Handle("GET /version", h)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	middlewares := []Middleware{RequestID(), Recover(l)}
	if cfg.AccessLog {
		middlewares = append(middlewares, AccessLog(l))
	}

	return Chain(mux, middlewares...)
}
