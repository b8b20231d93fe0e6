package redisserver

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/telemetry/logger"
	"github.com/yndnr/respkv-go/internal/telemetry/metric"
)

const (
	// DefaultMaxConnections bounds concurrently served clients.
	DefaultMaxConnections = 250

	// acceptBackoff is the first pause after a failed accept. It doubles on
	// every consecutive failure and Serve gives up once it would exceed
	// maxAcceptBackoffSteps doublings.
	acceptBackoff         = time.Second
	maxAcceptBackoffSteps = 6

	// replyTimeout bounds the best-effort error reply sent before a
	// connection is dropped for a protocol violation.
	replyTimeout = time.Second
)

// Config holds the RESP listener configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// MaxConnections is the number of clients served at once. The accept
	// loop blocks while every slot is taken.
	MaxConnections int
	// RateLimit is the maximum number of commands per second on a single
	// connection. Zero disables rate limiting.
	RateLimit int
	// MaxFrameSize caps the encoded size of a single request frame.
	MaxFrameSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:6379",
		MaxConnections: DefaultMaxConnections,
		MaxFrameSize:   resp.DefaultMaxFrameSize,
	}
}

// Server accepts RESP clients and applies their commands to a shared store.
type Server struct {
	cfg     Config
	store   Store
	logger  logger.Logger
	metrics *metric.Registry

	backoff time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. The default is logger.Default().
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records connection and command metrics into r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// New creates a server over store. Zero config fields take their defaults.
func New(cfg Config, store Store, opts ...Option) *Server {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = resp.DefaultMaxFrameSize
	}
	if cfg.RateLimit < 0 {
		cfg.RateLimit = 0
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger.Default(),
		backoff: acceptBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// Serve accepts connections on ln until ctx is cancelled or accepting fails
// for good, then closes ln and waits for every connection handler to finish.
//
// It returns nil after a shutdown and the last accept error otherwise.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	// A terminal accept error drains the handlers the same way a shutdown
	// does.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	context.AfterFunc(ctx, func() { _ = ln.Close() })

	slots := semaphore.NewWeighted(int64(s.cfg.MaxConnections))

	s.logger.Info("redis server listening",
		"address", ln.Addr().String(),
		"max_connections", s.cfg.MaxConnections,
	)

	for {
		waitStart := time.Now()
		if err := slots.Acquire(ctx, 1); err != nil {
			s.logger.Info("redis server shutting down")
			return nil
		}
		if s.metrics != nil {
			s.metrics.AdmissionWaitTime.Observe(time.Since(waitStart).Seconds())
		}

		nc, err := s.accept(ctx, ln)
		if err != nil {
			slots.Release(1)
			if ctx.Err() != nil {
				s.logger.Info("redis server shutting down")
				return nil
			}
			s.logger.Error("accept failed permanently", "error", err)
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer slots.Release(1)
			s.serveConn(ctx, nc)
		}()
	}
}

// accept retries failed accepts with exponential backoff.
func (s *Server) accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	backoff := s.backoff
	limit := s.backoff << maxAcceptBackoffSteps

	for {
		nc, err := ln.Accept()
		if err == nil {
			return nc, nil
		}
		if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.AcceptErrors.Inc()
		}
		if backoff > limit {
			return nil, err
		}

		s.logger.Warn("accept failed, retrying", "error", err, "backoff", backoff)

		t := time.NewTimer(backoff)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
		backoff *= 2
	}
}

// serveConn runs the read, apply, reply loop of one client.
func (s *Server) serveConn(ctx context.Context, nc net.Conn) {
	defer nc.Close()

	connID := ulid.Make().String()
	log := s.logger.WithContext(logger.WithConnID(ctx, connID)).With(
		"conn_id", connID,
		"remote", nc.RemoteAddr().String(),
	)

	if s.metrics != nil {
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ConnectionsActive.Inc()
		defer s.metrics.ConnectionsActive.Dec()
	}

	// Shutdown interrupts a blocked read. A command already being applied
	// still completes and gets its reply.
	stop := context.AfterFunc(ctx, func() { _ = nc.SetReadDeadline(time.Now()) })
	defer stop()

	conn := resp.NewConn(nc, resp.WithMaxFrameSize(s.cfg.MaxFrameSize))

	var limiter *rate.Limiter
	if s.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit)
	}

	log.Debug("connection accepted")

	for {
		// Pipelined frames may already be buffered; do not start another
		// command once shutdown has begun.
		if ctx.Err() != nil {
			log.Debug("connection closed by shutdown")
			return
		}

		f, err := conn.ReadFrame()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				log.Debug("connection closed by shutdown")
			case errors.Is(err, io.EOF):
				log.Debug("connection closed by peer")
			case errors.Is(err, resp.ErrProtocol):
				s.rejectProtocol(nc, conn, log, err)
			default:
				log.Warn("connection read failed", "error", err)
			}
			return
		}

		cmd, err := CommandFromFrame(f)
		if err != nil {
			s.rejectProtocol(nc, conn, log, err)
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				log.Debug("connection closed by shutdown")
				return
			}
		}

		start := time.Now()
		if err := Apply(cmd, s.store, conn); err != nil {
			log.Warn("write reply failed", "command", cmd.Name(), "error", err)
			return
		}
		if s.metrics != nil {
			s.metrics.CommandsTotal.WithLabelValues(cmd.Name()).Inc()
			s.metrics.CommandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		}
	}
}

// rejectProtocol answers a malformed request with an error reply. The caller
// closes the connection afterwards.
func (s *Server) rejectProtocol(nc net.Conn, conn *resp.Conn, log logger.Logger, err error) {
	if s.metrics != nil {
		s.metrics.ProtocolErrors.Inc()
	}
	log.Warn("protocol error", "error", err)

	_ = nc.SetWriteDeadline(time.Now().Add(replyTimeout))
	_ = conn.WriteFrame(resp.Error("ERR protocol error: " + protocolDetail(err)))
}

// protocolDetail strips the sentinel text from a wrapped protocol error.
func protocolDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, resp.ErrProtocol.Error()+": "); i >= 0 {
		return msg[i+len(resp.ErrProtocol.Error())+2:]
	}
	return msg
}

// Run serves ln with a fresh in-memory store until ctx is cancelled. The
// store is closed after every connection has drained.
func Run(ctx context.Context, ln net.Listener, cfg Config, opts ...Option) error {
	store := memory.New()
	defer store.Close()

	s := New(cfg, store, opts...)
	if s.metrics != nil {
		store.RegisterMetrics(s.metrics.Registerer())
	}
	return s.Serve(ctx, ln)
}
