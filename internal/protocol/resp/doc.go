// Package resp implements the RESP2 frame codec used by respkv.
//
// The package is split into four files:
//
//   - frame.go: the Frame value type and its constructors
//   - codec.go: Check and Parse, the two-phase decoder
//   - encode.go: AppendFrame and WriteFrame
//   - conn.go: Conn, a buffered frame reader/writer over a byte stream
//
// Decoding is two-phase. Check walks the buffered bytes to find out whether
// a complete frame is present without allocating; Parse then decodes the
// frame that Check accepted. Bulk payloads returned by Parse alias the input
// buffer instead of being copied.
package resp
