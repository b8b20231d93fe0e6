package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/respkv-go/internal/cli/output"
	"github.com/yndnr/respkv-go/internal/protocol/resp"
)

// Executor sends one command and returns the reply.
type Executor interface {
	Do(ctx context.Context, args ...string) (resp.Frame, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	formatter output.Formatter
	completer *Completer
	history   *History
}

// Option configures the REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets the prompt printed before each line.
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithHistory sets the history that records every entered line.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// New creates a new REPL instance.
func New(exec Executor, formatter output.Formatter, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    "respkv> ",
		exec:      exec,
		formatter: formatter,
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History returns the history the REPL records into.
func (r *REPL) History() *History {
	return r.history
}

// Run starts the REPL loop. It returns nil on EOF, exit or quit, and the
// context error once ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(r.output, r.prompt)

		// A final line without a newline still runs; the next read ends the loop.
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return err
			}
			if strings.TrimSpace(line) == "" {
				fmt.Fprintln(r.output)
				return nil
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	if strings.EqualFold(args[0], "help") {
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		r.help(prefix)
		return nil
	}

	reply, err := r.exec.Do(ctx, args...)
	if err != nil {
		return err
	}
	return r.formatter.Format(r.output, reply)
}

func (r *REPL) help(prefix string) {
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no command matches %q\n", prefix)
		return
	}
	for _, m := range matches {
		fmt.Fprintln(r.output, m)
	}
}

// SplitArgs splits a command line into arguments.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   byte
		escaped bool
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]

		switch {
		case escaped:
			switch ch {
			case 'n':
				cur.WriteByte('\n')
			case 'r':
				cur.WriteByte('\r')
			case 't':
				cur.WriteByte('\t')
			default:
				cur.WriteByte(ch)
			}
			escaped = false
		case quote == '"' && ch == '\\':
			escaped = true
		case quote != 0 && ch == quote:
			quote = 0
		case quote != 0:
			cur.WriteByte(ch)
		case ch == '"' || ch == '\'':
			quote = ch
			inArg = true
		case ch == ' ' || ch == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteByte(ch)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, errors.New("unbalanced quotes")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
