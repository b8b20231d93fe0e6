package redisserver

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
)

// ErrEndOfStream is returned by the Parser when every element of the array
// has been consumed.
var ErrEndOfStream = errors.New("redisserver: end of stream")

// Parser is a forward-only cursor over the elements of an array frame.
type Parser struct {
	elems []resp.Frame
	pos   int
}

// NewParser returns a Parser over the elements of f, which must be an array.
func NewParser(f resp.Frame) (*Parser, error) {
	if f.Kind != resp.KindArray {
		return nil, fmt.Errorf("%w: expected array, got %s", resp.ErrProtocol, f.Kind)
	}
	return &Parser{elems: f.Array}, nil
}

// Next returns the next element.
func (p *Parser) Next() (resp.Frame, error) {
	if p.pos >= len(p.elems) {
		return resp.Frame{}, ErrEndOfStream
	}
	f := p.elems[p.pos]
	p.pos++
	return f, nil
}

// NextString returns the next element as text. Bulk payloads must be valid
// UTF-8.
func (p *Parser) NextString() (string, error) {
	f, err := p.Next()
	if err != nil {
		return "", err
	}
	switch f.Kind {
	case resp.KindSimple:
		return f.Str, nil
	case resp.KindBulk:
		if !utf8.Valid(f.Bulk) {
			return "", fmt.Errorf("%w: invalid utf-8 in bulk argument", resp.ErrProtocol)
		}
		return string(f.Bulk), nil
	default:
		return "", fmt.Errorf("%w: expected simple or bulk frame, got %s", resp.ErrProtocol, f.Kind)
	}
}

// NextBytes returns the next element as raw bytes. A bulk payload is
// returned without copying.
func (p *Parser) NextBytes() ([]byte, error) {
	f, err := p.Next()
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case resp.KindSimple:
		return []byte(f.Str), nil
	case resp.KindBulk:
		return f.Bulk, nil
	default:
		return nil, fmt.Errorf("%w: expected simple or bulk frame, got %s", resp.ErrProtocol, f.Kind)
	}
}

// NextInt returns the next element as an unsigned integer. Simple and bulk
// elements are parsed as decimal text.
func (p *Parser) NextInt() (uint64, error) {
	f, err := p.Next()
	if err != nil {
		return 0, err
	}

	var text string
	switch f.Kind {
	case resp.KindInteger:
		return f.Int, nil
	case resp.KindSimple:
		text = f.Str
	case resp.KindBulk:
		text = string(f.Bulk)
	default:
		return 0, fmt.Errorf("%w: expected integer frame, got %s", resp.ErrProtocol, f.Kind)
	}

	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", resp.ErrProtocol, text)
	}
	return n, nil
}

// Finish reports a protocol error if any element is left unconsumed.
func (p *Parser) Finish() error {
	if p.pos < len(p.elems) {
		return fmt.Errorf("%w: unexpected trailing arguments", resp.ErrProtocol)
	}
	return nil
}
