package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/protocol/resp"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read the value of a key",
		ArgsUsage: "KEY",
		Action:    get,
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value under a key",
		ArgsUsage: "KEY VALUE",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "ex",
				Usage: "Expire after this many seconds",
			},
			&cli.Uint64Flag{
				Name:  "px",
				Usage: "Expire after this many milliseconds",
			},
		},
		Action: set,
	}
}

// RawCommand returns the raw command.
func RawCommand() *cli.Command {
	return &cli.Command{
		Name:      "raw",
		Usage:     "Send arbitrary arguments as one command and print the reply",
		ArgsUsage: "ARG...",
		Action:    raw,
	}
}

func get(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: get KEY")
	}
	s, err := mustSession(c)
	if err != nil {
		return err
	}

	value, ok, err := s.Client.Get(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	reply := resp.Null()
	if ok {
		reply = resp.Bulk(value)
	}
	return s.Formatter.Format(writer(c), reply)
}

func set(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("usage: set KEY VALUE [--ex SECONDS | --px MILLISECONDS]")
	}
	if c.IsSet("ex") && c.IsSet("px") {
		return errors.New("--ex and --px are mutually exclusive")
	}

	var (
		expire time.Duration
		err    error
	)
	switch {
	case c.IsSet("ex"):
		expire, err = expiry(c.Uint64("ex"), time.Second)
	case c.IsSet("px"):
		expire, err = expiry(c.Uint64("px"), time.Millisecond)
	}
	if err != nil {
		return err
	}

	s, err := mustSession(c)
	if err != nil {
		return err
	}

	if err := s.Client.Set(c.Context, c.Args().Get(0), c.Args().Get(1), expire); err != nil {
		return err
	}
	return s.Formatter.Format(writer(c), resp.Simple("OK"))
}

// expiry converts n units to a duration, rejecting zero and overflow the
// same way the server does.
func expiry(n uint64, unit time.Duration) (time.Duration, error) {
	if n == 0 || n > uint64(1<<63-1)/uint64(unit) {
		return 0, fmt.Errorf("invalid expire time %d", n)
	}
	return time.Duration(n) * unit, nil
}

func raw(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("usage: raw ARG...")
	}
	s, err := mustSession(c)
	if err != nil {
		return err
	}

	reply, err := s.Client.Do(c.Context, c.Args().Slice()...)
	if err != nil {
		return err
	}
	return s.Formatter.Format(writer(c), reply)
}
