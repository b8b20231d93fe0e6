// Package repl provides the interactive mode of respkv-cli.
//
// Each input line is split into arguments (double and single quotes group
// words, backslash escapes work inside double quotes), sent to the server
// as one command and the reply is printed with the selected formatter.
// help and exit/quit are handled locally.
package repl
