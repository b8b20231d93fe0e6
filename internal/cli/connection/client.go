package connection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
)

// DefaultTimeout bounds one round trip when the context has no deadline.
const DefaultTimeout = 5 * time.Second

// ErrUnexpectedReply is returned when the server answers with a frame the
// command does not expect.
var ErrUnexpectedReply = errors.New("connection: unexpected reply")

// ServerError is an error reply sent by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Client is a RESP client for a single server.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer

	conn net.Conn
	rc   *resp.Conn
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout used when the context carries no
// deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client for addr. No connection is made until the
// first request.
func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr:    addr,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect dials the server if not already connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.addr, err)
	}
	c.conn = conn
	c.rc = resp.NewConn(conn)
	return nil
}

// Close closes the connection. Closing an unconnected client is a no-op.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.rc = nil
	return err
}

// Do sends args as a command array and returns the reply frame.
//
// An error reply is returned as a frame, not as an error. Transport and
// protocol failures close the connection so the next call redials.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	if len(args) == 0 {
		return resp.Frame{}, errors.New("connection: empty command")
	}
	if err := c.Connect(ctx); err != nil {
		return resp.Frame{}, err
	}

	deadline, ok := ctx.Deadline()
	if !ok && c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.Close()
		return resp.Frame{}, err
	}

	conn := c.conn
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := c.rc.WriteFrame(resp.Command(args...)); err != nil {
		c.Close()
		return resp.Frame{}, c.wrap(ctx, err)
	}
	reply, err := c.rc.ReadFrame()
	if err != nil {
		c.Close()
		return resp.Frame{}, c.wrap(ctx, err)
	}
	return reply, nil
}

// Get returns the value stored under key and whether it exists.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	reply, err := c.Do(ctx, "GET", key)
	if err != nil {
		return nil, false, err
	}

	switch reply.Kind {
	case resp.KindNull:
		return nil, false, nil
	case resp.KindBulk:
		// The payload aliases the read buffer.
		return bytes.Clone(reply.Bulk), true, nil
	case resp.KindError:
		return nil, false, &ServerError{Message: reply.Str}
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrUnexpectedReply, reply)
	}
}

// Set stores value under key. A positive expire is sent as EX when it is a
// whole number of seconds and as PX, rounded up to a millisecond,
// otherwise.
func (c *Client) Set(ctx context.Context, key, value string, expire time.Duration) error {
	args := []string{"SET", key, value}
	switch {
	case expire <= 0:
	case expire%time.Second == 0:
		args = append(args, "EX", strconv.FormatInt(int64(expire/time.Second), 10))
	default:
		ms := (expire + time.Millisecond - 1) / time.Millisecond
		args = append(args, "PX", strconv.FormatInt(int64(ms), 10))
	}

	reply, err := c.Do(ctx, args...)
	if err != nil {
		return err
	}

	switch {
	case reply.Kind == resp.KindSimple && reply.Str == "OK":
		return nil
	case reply.Kind == resp.KindError:
		return &ServerError{Message: reply.Str}
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedReply, reply)
	}
}

// wrap prefers the context error when cancellation caused the failure.
func (c *Client) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", c.addr, ctxErr)
	}
	return fmt.Errorf("%s: %w", c.addr, err)
}
