package redisserver

import (
	"errors"
	"testing"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
)

// ============================================================
// NewParser Tests
// ============================================================

func TestNewParser_RequiresArray(t *testing.T) {
	tests := []struct {
		name  string
		frame resp.Frame
	}{
		{"simple", resp.Simple("GET")},
		{"bulk", resp.BulkString("GET")},
		{"null", resp.Null()},
		{"integer", resp.Integer(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewParser(tt.frame); !errors.Is(err, resp.ErrProtocol) {
				t.Errorf("NewParser error = %v, want ErrProtocol", err)
			}
		})
	}
}

func TestParser_EmptyArray(t *testing.T) {
	p, err := NewParser(resp.Array())
	if err != nil {
		t.Fatalf("NewParser error: %v", err)
	}
	if _, err := p.Next(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("Next error = %v, want ErrEndOfStream", err)
	}
	if err := p.Finish(); err != nil {
		t.Errorf("Finish error = %v, want nil", err)
	}
}

// ============================================================
// Typed Accessor Tests
// ============================================================

func TestParser_NextString(t *testing.T) {
	tests := []struct {
		name    string
		elem    resp.Frame
		want    string
		wantErr bool
	}{
		{"simple", resp.Simple("hello"), "hello", false},
		{"bulk", resp.BulkString("world"), "world", false},
		{"empty bulk", resp.BulkString(""), "", false},
		{"invalid utf-8", resp.Bulk([]byte{0xff, 0xfe}), "", true},
		{"integer", resp.Integer(5), "", true},
		{"null", resp.Null(), "", true},
		{"array", resp.Array(resp.Simple("a")), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := NewParser(resp.Array(tt.elem))
			got, err := p.NextString()
			if tt.wantErr {
				if !errors.Is(err, resp.ErrProtocol) {
					t.Errorf("NextString error = %v, want ErrProtocol", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NextString error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NextString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParser_NextBytes(t *testing.T) {
	payload := []byte{0x00, 0xff, 'x'}
	p, _ := NewParser(resp.Array(resp.Bulk(payload), resp.Simple("ok"), resp.Integer(1)))

	got, err := p.NextBytes()
	if err != nil {
		t.Fatalf("NextBytes error: %v", err)
	}
	if &got[0] != &payload[0] {
		t.Error("NextBytes copied the bulk payload")
	}

	got, err = p.NextBytes()
	if err != nil || string(got) != "ok" {
		t.Errorf("NextBytes = %q, %v; want ok", got, err)
	}

	if _, err := p.NextBytes(); !errors.Is(err, resp.ErrProtocol) {
		t.Errorf("NextBytes(integer) error = %v, want ErrProtocol", err)
	}
}

func TestParser_NextInt(t *testing.T) {
	tests := []struct {
		name    string
		elem    resp.Frame
		want    uint64
		wantErr bool
	}{
		{"integer", resp.Integer(42), 42, false},
		{"simple", resp.Simple("7"), 7, false},
		{"bulk", resp.BulkString("18446744073709551615"), 18446744073709551615, false},
		{"negative", resp.BulkString("-1"), 0, true},
		{"overflow", resp.BulkString("18446744073709551616"), 0, true},
		{"not a number", resp.BulkString("ten"), 0, true},
		{"empty", resp.BulkString(""), 0, true},
		{"null", resp.Null(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := NewParser(resp.Array(tt.elem))
			got, err := p.NextInt()
			if tt.wantErr {
				if !errors.Is(err, resp.ErrProtocol) {
					t.Errorf("NextInt error = %v, want ErrProtocol", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NextInt error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NextInt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParser_EndOfStreamFromAccessors(t *testing.T) {
	p, _ := NewParser(resp.Array())

	if _, err := p.NextString(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("NextString error = %v, want ErrEndOfStream", err)
	}
	if _, err := p.NextBytes(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("NextBytes error = %v, want ErrEndOfStream", err)
	}
	if _, err := p.NextInt(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("NextInt error = %v, want ErrEndOfStream", err)
	}
}

// ============================================================
// Finish Tests
// ============================================================

func TestParser_Finish(t *testing.T) {
	p, _ := NewParser(resp.Command("a", "b"))

	if _, err := p.Next(); err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if err := p.Finish(); !errors.Is(err, resp.ErrProtocol) {
		t.Errorf("Finish with one element left = %v, want ErrProtocol", err)
	}

	if _, err := p.Next(); err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if err := p.Finish(); err != nil {
		t.Errorf("Finish after consuming everything = %v, want nil", err)
	}
}
