// Package command provides the respkv-cli command definitions.
//
// Commands are built with urfave/cli/v2:
//
//   - root.go: App, global flags, session setup and teardown
//   - kv.go: get, set and raw
//   - interactive.go: the repl command, also run when no command is given
package command
