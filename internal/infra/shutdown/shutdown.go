package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// WithSignals returns a context that is cancelled on SIGINT or SIGTERM.
// Calling the returned stop function releases the signal registration.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler runs shutdown hooks.
type Handler struct {
	timeout time.Duration
	hooks   []hook
	mu      sync.Mutex
	once    sync.Once
	err     error
	done    chan struct{}
}

// NewHandler creates a new shutdown handler. Hooks share a single deadline
// of timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		hooks:   make([]hook, 0),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a named shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Wait blocks until ctx is done and then runs the hooks.
func (h *Handler) Wait(ctx context.Context) error {
	<-ctx.Done()
	return h.Run()
}

// Run executes every hook once, even if earlier ones fail, and returns the
// joined errors. Later calls return the first result.
func (h *Handler) Run() error {
	h.once.Do(func() {
		defer close(h.done)

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]hook, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i].fn(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", hooks[i].name, err))
			}
		}
		h.err = errors.Join(errs...)
	})
	return h.err
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
