package redisserver

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
)

// Store is the key-value state commands operate on.
type Store interface {
	Get(key string) ([]byte, bool)
	// Set stores value under key. expire <= 0 means the entry never expires.
	// value points into the connection read buffer; a Store that keeps it
	// must copy it.
	Set(key string, value []byte, expire time.Duration)
	Delete(key string) bool
}

// FrameWriter receives command replies.
type FrameWriter interface {
	WriteFrame(f resp.Frame) error
}

// Command is one parsed client request. The set of implementations is closed:
// *Get, *Set and *Unknown.
type Command interface {
	// Name returns the lower-case command name used in logs and metrics.
	Name() string

	command()
}

// Get fetches the value of Key.
type Get struct {
	Key string
}

// Set stores Value under Key.
//
// Expiring reports that an EX or PX option was given. Without it Expire is
// zero and the entry never expires; with it a zero Expire leaves the entry
// already expired.
type Set struct {
	Key      string
	Value    []byte
	Expire   time.Duration
	Expiring bool
}

// Unknown is any command the server does not implement.
type Unknown struct {
	CommandName string
}

func (*Get) Name() string     { return "get" }
func (*Set) Name() string     { return "set" }
func (*Unknown) Name() string { return "unknown" }

func (*Get) command()     {}
func (*Set) command()     {}
func (*Unknown) command() {}

// NewUnknown returns the command used to answer an unsupported name.
func NewUnknown(name string) *Unknown {
	return &Unknown{CommandName: name}
}

// CommandFromFrame decodes a request frame into a Command.
//
// The first element is matched case-insensitively against the supported
// names. Anything else, including a first element that cannot be read as a
// string, becomes an *Unknown carrying as much of the name as could be
// recovered.
func CommandFromFrame(f resp.Frame) (Command, error) {
	p, err := NewParser(f)
	if err != nil {
		return nil, err
	}

	name, err := p.NextString()
	if err != nil {
		return NewUnknown(nameText(f)), nil
	}

	var cmd Command
	switch strings.ToLower(name) {
	case "get":
		cmd, err = parseGet(p)
	case "set":
		cmd, err = parseSet(p)
	default:
		// Arguments of an unsupported command are never looked at.
		return NewUnknown(name), nil
	}
	if err != nil {
		return nil, err
	}

	if err := p.Finish(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// nameText recovers printable text from the first element of a request whose
// name is not a valid string.
func nameText(f resp.Frame) string {
	if len(f.Array) == 0 {
		return ""
	}
	switch e := f.Array[0]; e.Kind {
	case resp.KindSimple, resp.KindError:
		return e.Str
	case resp.KindBulk:
		return strings.ToValidUTF8(string(e.Bulk), string(utf8.RuneError))
	case resp.KindInteger:
		return strconv.FormatUint(e.Int, 10)
	default:
		return ""
	}
}

func parseGet(p *Parser) (*Get, error) {
	key, err := p.NextString()
	if err != nil {
		return nil, argError("get", err)
	}
	return &Get{Key: key}, nil
}

func parseSet(p *Parser) (*Set, error) {
	key, err := p.NextString()
	if err != nil {
		return nil, argError("set", err)
	}
	value, err := p.NextBytes()
	if err != nil {
		return nil, argError("set", err)
	}

	cmd := &Set{Key: key, Value: value}

	opt, err := p.NextString()
	switch {
	case errors.Is(err, ErrEndOfStream):
		return cmd, nil
	case err != nil:
		return nil, err
	}

	var unit time.Duration
	switch strings.ToUpper(opt) {
	case "EX":
		unit = time.Second
	case "PX":
		unit = time.Millisecond
	default:
		return nil, fmt.Errorf("%w: unsupported SET option %q", resp.ErrProtocol, opt)
	}

	n, err := p.NextInt()
	if err != nil {
		return nil, argError("set", err)
	}
	if n > uint64(math.MaxInt64/int64(unit)) {
		return nil, fmt.Errorf("%w: invalid expire time in 'set' command", resp.ErrProtocol)
	}
	cmd.Expire = time.Duration(n) * unit
	cmd.Expiring = true
	return cmd, nil
}

// argError turns a missing argument into a protocol error naming the command.
func argError(cmd string, err error) error {
	if errors.Is(err, ErrEndOfStream) {
		return fmt.Errorf("%w: wrong number of arguments for '%s' command", resp.ErrProtocol, cmd)
	}
	return err
}

// Apply executes cmd against db and writes exactly one reply to dst. Only
// errors from writing the reply are returned.
func Apply(cmd Command, db Store, dst FrameWriter) error {
	switch c := cmd.(type) {
	case *Get:
		if value, ok := db.Get(c.Key); ok {
			return dst.WriteFrame(resp.Bulk(value))
		}
		return dst.WriteFrame(resp.Null())
	case *Set:
		if c.Expiring && c.Expire <= 0 {
			// The new entry is dead on arrival and replaces any live one.
			db.Delete(c.Key)
		} else {
			db.Set(c.Key, c.Value, c.Expire)
		}
		return dst.WriteFrame(resp.Simple("OK"))
	case *Unknown:
		return dst.WriteFrame(resp.Error(fmt.Sprintf("ERR unknown command '%s'", c.CommandName)))
	default:
		panic(fmt.Sprintf("redisserver: unexpected command type %T", cmd))
	}
}
