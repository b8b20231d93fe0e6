package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
)

// Format represents the output format.
type Format string

const (
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter formats a reply for output.
type Formatter interface {
	Format(w io.Writer, reply resp.Frame) error
}

// ParseFormat validates a format name. Empty means raw.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatRaw:
		return FormatRaw, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want raw, json or yaml)", s)
	}
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &RawFormatter{}
	}
}

// Value is the structured form of a reply used by the json and yaml
// formats. Exactly one field is set, except for null which sets none.
type Value struct {
	Type    string  `json:"type" yaml:"type"`
	String  *string `json:"string,omitempty" yaml:"string,omitempty"`
	Integer *uint64 `json:"integer,omitempty" yaml:"integer,omitempty"`
	Error   *string `json:"error,omitempty" yaml:"error,omitempty"`
	// Bytes holds a bulk payload that is not valid UTF-8.
	Bytes []byte  `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Array []Value `json:"array,omitempty" yaml:"array,omitempty"`
}

// ToValue converts a reply into its structured form.
func ToValue(f resp.Frame) Value {
	v := Value{Type: f.Kind.String()}
	switch f.Kind {
	case resp.KindSimple:
		v.String = &f.Str
	case resp.KindError:
		v.Error = &f.Str
	case resp.KindInteger:
		v.Integer = &f.Int
	case resp.KindBulk:
		if utf8.Valid(f.Bulk) {
			s := string(f.Bulk)
			v.String = &s
		} else {
			v.Bytes = append([]byte(nil), f.Bulk...)
		}
	case resp.KindArray:
		v.Array = make([]Value, len(f.Array))
		for i, e := range f.Array {
			v.Array[i] = ToValue(e)
		}
	}
	return v
}
