package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const (
	// InitialBufferSize is the starting capacity of the read buffer.
	InitialBufferSize = 4 * 1024

	// DefaultMaxFrameSize limits how many unconsumed bytes a Conn buffers
	// while waiting for one frame to complete.
	DefaultMaxFrameSize = 64 * 1024 * 1024

	// minReadSize is the smallest read window handed to the stream.
	minReadSize = 512
)

// ErrConnReset is returned when the peer closes the stream in the middle of
// a frame.
var ErrConnReset = errors.New("resp: connection reset by peer")

// Conn reads and writes frames over a byte stream.
//
// The read buffer only grows: consumed bytes are dropped by reslicing and
// new data is always read into spare capacity past the unconsumed bytes.
// Bulk payloads handed out by ReadFrame therefore stay valid after later
// reads. A Conn is not safe for concurrent use.
type Conn struct {
	rw           io.ReadWriter
	bw           *bufio.Writer
	buf          []byte
	maxFrameSize int
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithMaxFrameSize bounds the bytes buffered for a single frame.
func WithMaxFrameSize(n int) ConnOption {
	return func(c *Conn) {
		if n > 0 {
			c.maxFrameSize = n
		}
	}
}

// NewConn wraps rw.
func NewConn(rw io.ReadWriter, opts ...ConnOption) *Conn {
	c := &Conn{
		rw:           rw,
		bw:           bufio.NewWriter(rw),
		buf:          make([]byte, 0, InitialBufferSize),
		maxFrameSize: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadFrame returns the next frame from the stream.
//
// It returns io.EOF when the peer closed the stream on a frame boundary and
// ErrConnReset when it closed with a partial frame buffered. Malformed input
// yields an error wrapping ErrProtocol; the stream cannot be resynchronized
// after that.
func (c *Conn) ReadFrame() (Frame, error) {
	for {
		f, ok, err := c.parseFrame()
		if err != nil {
			return Frame{}, err
		}
		if ok {
			return f, nil
		}

		if len(c.buf) >= c.maxFrameSize {
			return Frame{}, c.errTooLarge()
		}

		if err := c.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				if len(c.buf) == 0 {
					return Frame{}, io.EOF
				}
				return Frame{}, ErrConnReset
			}
			return Frame{}, err
		}
	}
}

// parseFrame decodes one frame from the buffered bytes if a complete one
// is present.
func (c *Conn) parseFrame() (Frame, bool, error) {
	if len(c.buf) == 0 {
		return Frame{}, false, nil
	}
	n, err := Check(c.buf)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			return Frame{}, false, nil
		}
		return Frame{}, false, err
	}
	if n > c.maxFrameSize {
		return Frame{}, false, c.errTooLarge()
	}
	f, n, err := Parse(c.buf)
	if err != nil {
		return Frame{}, false, err
	}
	c.buf = c.buf[n:]
	return f, true, nil
}

func (c *Conn) errTooLarge() error {
	return fmt.Errorf("%w: frame exceeds limit of %d bytes", ErrProtocol, c.maxFrameSize)
}

// fill reads at least one byte into the buffer.
func (c *Conn) fill() error {
	if cap(c.buf)-len(c.buf) < minReadSize {
		size := 2*len(c.buf) + minReadSize
		if size < InitialBufferSize {
			size = InitialBufferSize
		}
		grown := make([]byte, len(c.buf), size)
		copy(grown, c.buf)
		c.buf = grown
	}

	for {
		n, err := c.rw.Read(c.buf[len(c.buf):cap(c.buf)])
		c.buf = c.buf[:len(c.buf)+n]
		if n > 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Buffered returns the number of bytes read but not yet decoded.
func (c *Conn) Buffered() int {
	return len(c.buf)
}

// WriteFrame writes f and flushes it to the stream.
func (c *Conn) WriteFrame(f Frame) error {
	if err := WriteFrame(c.bw, f); err != nil {
		return err
	}
	return c.bw.Flush()
}
