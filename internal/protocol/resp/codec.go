package resp

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	// ErrIncomplete means the buffer ends before the frame does. The caller
	// should read more bytes and retry from the start of the same frame.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrProtocol is wrapped by every malformed-input error.
	ErrProtocol = errors.New("resp: protocol error")
)

// minFrameLen is the size of the shortest encoded frame, e.g. "+\r\n".
const minFrameLen = 3

// Check reports the length of the complete frame at the start of buf.
//
// It returns ErrIncomplete when more bytes are needed and an error wrapping
// ErrProtocol when the bytes can never form a valid frame. Check only
// validates bounds and grammar; it does not allocate.
func Check(buf []byte) (int, error) {
	c := cursor{buf: buf}
	if err := c.check(); err != nil {
		return 0, err
	}
	return c.pos, nil
}

// Parse decodes the frame at the start of buf and returns it with the
// number of bytes consumed.
//
// Parse accepts exactly the inputs Check accepts. Bulk payloads in the
// returned frame are sub-slices of buf, so buf must not be modified while
// the frame is in use.
func Parse(buf []byte) (Frame, int, error) {
	c := cursor{buf: buf}
	f, err := c.parse()
	if err != nil {
		return Frame{}, 0, err
	}
	return f, c.pos, nil
}

// cursor is a read position over a buffered byte window.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) check() error {
	tag, err := c.getU8()
	if err != nil {
		return err
	}

	switch tag {
	case '+', '-':
		line, err := c.getLine()
		if err != nil {
			return err
		}
		if !utf8.Valid(line) {
			return fmt.Errorf("%w: invalid utf-8 in simple string", ErrProtocol)
		}
		return nil
	case ':':
		_, err := c.getDecimal()
		return err
	case '$':
		n, null, err := c.getLength()
		if err != nil || null {
			return err
		}
		_, err = c.getBulk(n)
		return err
	case '*':
		n, null, err := c.getLength()
		if err != nil || null {
			return err
		}
		for i := 0; i < n; i++ {
			if err := c.check(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: illegal frame type byte %q", ErrProtocol, tag)
	}
}

func (c *cursor) parse() (Frame, error) {
	tag, err := c.getU8()
	if err != nil {
		return Frame{}, err
	}

	switch tag {
	case '+', '-':
		line, err := c.getLine()
		if err != nil {
			return Frame{}, err
		}
		if !utf8.Valid(line) {
			return Frame{}, fmt.Errorf("%w: invalid utf-8 in simple string", ErrProtocol)
		}
		if tag == '-' {
			return Error(string(line)), nil
		}
		return Simple(string(line)), nil
	case ':':
		n, err := c.getDecimal()
		if err != nil {
			return Frame{}, err
		}
		return Integer(n), nil
	case '$':
		n, null, err := c.getLength()
		if err != nil {
			return Frame{}, err
		}
		if null {
			return Null(), nil
		}
		data, err := c.getBulk(n)
		if err != nil {
			return Frame{}, err
		}
		return Bulk(data), nil
	case '*':
		n, null, err := c.getLength()
		if err != nil {
			return Frame{}, err
		}
		if null {
			return Null(), nil
		}
		// Every element takes at least minFrameLen bytes, so the buffered
		// input bounds how many can follow. Parse may run on bytes Check
		// has not seen.
		elems := make([]Frame, 0, min(n, (len(c.buf)-c.pos)/minFrameLen))
		for i := 0; i < n; i++ {
			e, err := c.parse()
			if err != nil {
				return Frame{}, err
			}
			elems = append(elems, e)
		}
		return Array(elems...), nil
	default:
		return Frame{}, fmt.Errorf("%w: illegal frame type byte %q", ErrProtocol, tag)
	}
}

func (c *cursor) getU8() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrIncomplete
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// getLine returns the bytes up to the next CRLF and moves past it.
func (c *cursor) getLine() ([]byte, error) {
	start := c.pos
	for i := start; i+1 < len(c.buf); i++ {
		if c.buf[i] == '\r' && c.buf[i+1] == '\n' {
			c.pos = i + 2
			return c.buf[start:i], nil
		}
	}
	return nil, ErrIncomplete
}

func (c *cursor) getDecimal() (uint64, error) {
	line, err := c.getLine()
	if err != nil {
		return 0, err
	}
	return parseUint(line)
}

// getLength reads a length line. "-1" marks a null value.
func (c *cursor) getLength() (n int, null bool, err error) {
	line, err := c.getLine()
	if err != nil {
		return 0, false, err
	}
	if len(line) == 2 && line[0] == '-' && line[1] == '1' {
		return 0, true, nil
	}
	v, err := parseUint(line)
	if err != nil {
		return 0, false, err
	}
	if v > math.MaxInt {
		return 0, false, fmt.Errorf("%w: length %d out of range", ErrProtocol, v)
	}
	return int(v), false, nil
}

// getBulk returns the next n payload bytes and consumes the trailing CRLF.
func (c *cursor) getBulk(n int) ([]byte, error) {
	remaining := len(c.buf) - c.pos
	if n > remaining || remaining-n < 2 {
		return nil, ErrIncomplete
	}
	end := c.pos + n
	if c.buf[end] != '\r' || c.buf[end+1] != '\n' {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	data := c.buf[c.pos:end:end]
	c.pos = end + 2
	return data, nil
}

// parseUint parses an unsigned decimal without allocating.
func parseUint(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty number", ErrProtocol)
	}
	var n uint64
	for _, ch := range b {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("%w: invalid number %q", ErrProtocol, b)
		}
		d := uint64(ch - '0')
		if n > (math.MaxUint64-d)/10 {
			return 0, fmt.Errorf("%w: number %q overflows", ErrProtocol, b)
		}
		n = n*10 + d
	}
	return n, nil
}
