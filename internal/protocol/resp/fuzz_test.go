package resp

import (
	"errors"
	"testing"
)

// FuzzCheckParse verifies that Check and Parse agree on every input and
// that accepted frames survive a re-encode.
func FuzzCheckParse(f *testing.F) {
	seeds := []string{
		"+OK\r\n",
		"-ERR x\r\n",
		":12\r\n",
		"$3\r\nfoo\r\n",
		"$-1\r\n",
		"*-1\r\n",
		"*2\r\n$3\r\nGET\r\n$1\r\nk\r\n",
		"*1\r\n*1\r\n:0\r\n",
		"$2\r\nab",
		"?\r\n",
		"*4611686018427387903\r\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		n, cerr := Check(data)
		frame, m, perr := Parse(data)

		if (cerr == nil) != (perr == nil) {
			t.Fatalf("Check err = %v, Parse err = %v", cerr, perr)
		}
		if cerr != nil {
			if errors.Is(cerr, ErrIncomplete) != errors.Is(perr, ErrIncomplete) {
				t.Fatalf("Check err = %v, Parse err = %v", cerr, perr)
			}
			return
		}
		if n != m {
			t.Fatalf("Check consumed %d, Parse consumed %d", n, m)
		}

		again, _, err := Parse(Encode(frame))
		if err != nil {
			t.Fatalf("re-parse of %v failed: %v", frame, err)
		}
		if !again.Equal(frame) {
			t.Fatalf("re-encode changed %v into %v", frame, again)
		}
	})
}
