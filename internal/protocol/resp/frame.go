package resp

import (
	"bytes"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Frame.
type Kind uint8

// Frame kinds. The zero Kind is KindNull, so the zero Frame is a null reply.
const (
	KindNull Kind = iota
	KindSimple
	KindError
	KindInteger
	KindBulk
	KindArray
)

// String returns the RESP name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindSimple:
		return "simple"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Frame is one RESP2 protocol value.
//
// Only the field matching Kind is meaningful. Frames are values and must
// not be mutated after construction; a Bulk payload produced by Parse
// shares memory with the buffer it was decoded from.
type Frame struct {
	Kind  Kind
	Str   string
	Int   uint64
	Bulk  []byte
	Array []Frame
}

// Simple returns a simple string frame ("+OK").
func Simple(s string) Frame {
	return Frame{Kind: KindSimple, Str: s}
}

// Error returns an error frame ("-ERR ...").
func Error(s string) Frame {
	return Frame{Kind: KindError, Str: s}
}

// Integer returns an integer frame.
func Integer(n uint64) Frame {
	return Frame{Kind: KindInteger, Int: n}
}

// Bulk returns a bulk string frame holding b (not copied).
func Bulk(b []byte) Frame {
	return Frame{Kind: KindBulk, Bulk: b}
}

// BulkString returns a bulk string frame holding s.
func BulkString(s string) Frame {
	return Bulk([]byte(s))
}

// Null returns the null frame.
func Null() Frame {
	return Frame{Kind: KindNull}
}

// Array returns an array frame of the given elements.
func Array(elems ...Frame) Frame {
	if elems == nil {
		elems = []Frame{}
	}
	return Frame{Kind: KindArray, Array: elems}
}

// Command builds a request array of bulk strings, the shape clients send.
func Command(args ...string) Frame {
	elems := make([]Frame, len(args))
	for i, a := range args {
		elems[i] = BulkString(a)
	}
	return Array(elems...)
}

// IsNull reports whether f is the null frame.
func (f Frame) IsNull() bool {
	return f.Kind == KindNull
}

// Equal reports whether f and other hold the same value.
func (f Frame) Equal(other Frame) bool {
	if f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case KindSimple, KindError:
		return f.Str == other.Str
	case KindInteger:
		return f.Int == other.Int
	case KindBulk:
		return bytes.Equal(f.Bulk, other.Bulk)
	case KindArray:
		if len(f.Array) != len(other.Array) {
			return false
		}
		for i := range f.Array {
			if !f.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// maxBulkPreview bounds how much of a bulk payload String prints.
const maxBulkPreview = 32

// String renders f for logs. Bulk payloads are truncated.
func (f Frame) String() string {
	var sb strings.Builder
	f.format(&sb)
	return sb.String()
}

func (f Frame) format(sb *strings.Builder) {
	switch f.Kind {
	case KindNull:
		sb.WriteString("(nil)")
	case KindSimple:
		sb.WriteString(f.Str)
	case KindError:
		sb.WriteString("(error) ")
		sb.WriteString(f.Str)
	case KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatUint(f.Int, 10))
	case KindBulk:
		if len(f.Bulk) > maxBulkPreview {
			sb.WriteString(strconv.Quote(string(f.Bulk[:maxBulkPreview])))
			sb.WriteString("...(")
			sb.WriteString(strconv.Itoa(len(f.Bulk)))
			sb.WriteString(" bytes)")
			return
		}
		sb.WriteString(strconv.Quote(string(f.Bulk)))
	case KindArray:
		sb.WriteByte('[')
		for i, e := range f.Array {
			if i > 0 {
				sb.WriteByte(' ')
			}
			e.format(sb)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString(f.Kind.String())
	}
}
