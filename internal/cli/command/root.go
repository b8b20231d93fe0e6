package command

import (
	"errors"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/cli/config"
	"github.com/yndnr/respkv-go/internal/cli/connection"
	"github.com/yndnr/respkv-go/internal/cli/output"
	"github.com/yndnr/respkv-go/internal/infra/buildinfo"
)

const sessionKey = "session"

// Session is the per-invocation state shared by all commands.
type Session struct {
	Config    *config.CLIConfig
	Client    *connection.Client
	Formatter output.Formatter
}

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "respkv-cli",
		Usage:   "Command-line client for respkv",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			RawCommand(),
			ReplCommand(),
		},
		Before: setup,
		After:  teardown,
		Action: interactive,
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "respkv server address (host:port)",
			Value:   config.DefaultServer,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: raw, json, yaml",
			Value:   config.DefaultOutput,
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Per-request timeout (0 disables)",
			Value:   config.DefaultTimeout,
		},
	}
}

// setup loads the configuration, applies explicit flags on top and opens
// a client. Nothing is dialed until a command sends a request.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if err := config.Verify(cfg); err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[sessionKey] = &Session{
		Config:    cfg,
		Client:    connection.NewClient(cfg.Server, connection.WithTimeout(cfg.Timeout)),
		Formatter: output.NewFormatter(format),
	}
	return nil
}

func teardown(c *cli.Context) error {
	if s := GetSession(c); s != nil {
		return s.Client.Close()
	}
	return nil
}

// GetSession retrieves the session created by setup.
func GetSession(c *cli.Context) *Session {
	if s, ok := c.App.Metadata[sessionKey].(*Session); ok {
		return s
	}
	return nil
}

func mustSession(c *cli.Context) (*Session, error) {
	s := GetSession(c)
	if s == nil {
		return nil, errors.New("no session: the application was not set up")
	}
	return s, nil
}

// writer returns where command output goes.
func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}
