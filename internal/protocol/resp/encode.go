package resp

import (
	"bufio"
	"strconv"
	"strings"
)

var crlf = []byte("\r\n")

// AppendFrame appends the wire encoding of f to dst.
//
// Null encodes as the null bulk string "$-1\r\n". A CRLF inside a simple or
// error string would end the line early, so it is replaced by a space.
func AppendFrame(dst []byte, f Frame) []byte {
	switch f.Kind {
	case KindSimple:
		dst = append(dst, '+')
		dst = append(dst, lineSafe(f.Str)...)
		return append(dst, crlf...)
	case KindError:
		dst = append(dst, '-')
		dst = append(dst, lineSafe(f.Str)...)
		return append(dst, crlf...)
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendUint(dst, f.Int, 10)
		return append(dst, crlf...)
	case KindBulk:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(f.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, f.Bulk...)
		return append(dst, crlf...)
	case KindArray:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(f.Array)), 10)
		dst = append(dst, crlf...)
		for _, e := range f.Array {
			dst = AppendFrame(dst, e)
		}
		return dst
	default:
		return append(dst, "$-1\r\n"...)
	}
}

// Encode returns the wire encoding of f.
func Encode(f Frame) []byte {
	return AppendFrame(nil, f)
}

// WriteFrame writes the wire encoding of f to w. It does not flush.
func WriteFrame(w *bufio.Writer, f Frame) error {
	switch f.Kind {
	case KindSimple:
		return writeLine(w, '+', lineSafe(f.Str))
	case KindError:
		return writeLine(w, '-', lineSafe(f.Str))
	case KindInteger:
		return writeLine(w, ':', strconv.FormatUint(f.Int, 10))
	case KindBulk:
		if err := writeLine(w, '$', strconv.Itoa(len(f.Bulk))); err != nil {
			return err
		}
		if _, err := w.Write(f.Bulk); err != nil {
			return err
		}
		_, err := w.Write(crlf)
		return err
	case KindArray:
		if err := writeLine(w, '*', strconv.Itoa(len(f.Array))); err != nil {
			return err
		}
		for _, e := range f.Array {
			if err := WriteFrame(w, e); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := w.WriteString("$-1\r\n")
		return err
	}
}

func writeLine(w *bufio.Writer, tag byte, s string) error {
	if err := w.WriteByte(tag); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	_, err := w.Write(crlf)
	return err
}

func lineSafe(s string) string {
	if !strings.Contains(s, "\r\n") {
		return s
	}
	return strings.ReplaceAll(s, "\r\n", " ")
}
