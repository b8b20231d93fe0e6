// Package main provides the entry point for respkv-cli.
//
// respkv-cli talks RESP to a respkv-server (or any Redis-compatible server)
// either one command at a time or through an interactive REPL.
//
// Usage:
//
//	respkv-cli [global flags] [command] [args]
//	respkv-cli get KEY
//	respkv-cli set KEY VALUE --ex 60
//	respkv-cli -o json raw GET KEY
//	respkv-cli              # interactive mode
package main
