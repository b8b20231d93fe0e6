package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/cli/repl"
)

// ReplCommand returns the repl command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Start interactive mode (default when no command is given)",
		Action: interactive,
	}
}

func interactive(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}
	s, err := mustSession(c)
	if err != nil {
		return err
	}

	history := repl.NewHistory(s.Config.HistoryFile)
	if err := history.Load(); err != nil {
		PrintError(c, "load history: %v", err)
	}

	r := repl.New(s.Client, s.Formatter,
		repl.WithIO(reader(c), writer(c)),
		repl.WithPrompt(s.Client.Addr()+"> "),
		repl.WithHistory(history),
	)
	runErr := r.Run(c.Context)

	if err := history.Save(); err != nil {
		PrintError(c, "save history: %v", err)
	}
	return runErr
}

func reader(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}

// PrintError prints an error message to the app's error writer.
func PrintError(c *cli.Context, format string, args ...any) {
	w := c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "error: "+format+"\n", args...)
}
