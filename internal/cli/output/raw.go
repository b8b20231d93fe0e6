package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
)

// RawFormatter prints replies the way redis-cli does in a terminal.
type RawFormatter struct{}

// Format writes reply followed by a newline.
func (f *RawFormatter) Format(w io.Writer, reply resp.Frame) error {
	var sb strings.Builder
	writeRaw(&sb, reply, "")
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeRaw(sb *strings.Builder, f resp.Frame, indent string) {
	switch f.Kind {
	case resp.KindNull:
		sb.WriteString("(nil)")
	case resp.KindSimple:
		sb.WriteString(f.Str)
	case resp.KindError:
		sb.WriteString("(error) ")
		sb.WriteString(f.Str)
	case resp.KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatUint(f.Int, 10))
	case resp.KindBulk:
		sb.WriteString(strconv.Quote(string(f.Bulk)))
	case resp.KindArray:
		if len(f.Array) == 0 {
			sb.WriteString("(empty array)")
			return
		}
		for i, e := range f.Array {
			prefix := strconv.Itoa(i+1) + ") "
			if i > 0 {
				sb.WriteByte('\n')
				sb.WriteString(indent)
			}
			sb.WriteString(prefix)
			writeRaw(sb, e, indent+strings.Repeat(" ", len(prefix)))
		}
	default:
		sb.WriteString(f.Kind.String())
	}
}
