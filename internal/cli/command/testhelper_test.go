package command

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/respkv-go/internal/server/redisserver"
	"github.com/yndnr/respkv-go/internal/storage/memory"
)

// testEnv is a running server plus a CLI config file pointing at it.
type testEnv struct {
	addr    string
	config  string
	history string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = redisserver.New(redisserver.DefaultConfig(), store).Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = store.Close()
	})

	dir := t.TempDir()
	env := &testEnv{
		addr:    ln.Addr().String(),
		config:  filepath.Join(dir, "cli.yaml"),
		history: filepath.Join(dir, "history"),
	}
	content := "server: " + env.addr + "\nhistory_file: " + env.history + "\n"
	if err := os.WriteFile(env.config, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return env
}

// run executes the CLI with args and stdin, returning stdout and stderr.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	full := append([]string{"respkv-cli", "--config", e.config}, args...)
	err := app.Run(full)
	return stdout.String(), stderr.String(), err
}
