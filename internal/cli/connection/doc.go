// Package connection provides the RESP client used by respkv-cli.
//
// A Client owns one TCP connection, dials lazily on first use and redials
// after a transport failure. It speaks RESP2 through resp.Conn and is not
// safe for concurrent use.
package connection
