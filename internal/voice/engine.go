package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long a killed engine's orphaned children may hold
// its output pipes open.
const waitDelay = 2 * time.Second

// Engine is one non-terminal speech backend.
type Engine interface {
	State() State
	// Available reports why the engine cannot run, or nil.
	Available() error
	// Synthesize writes speech for text and returns the file it wrote, which
	// may differ from path when the engine requires another extension.
	Synthesize(ctx context.Context, text, path string) (string, error)
}

// commandRunner executes name with args, feeding stdin, and returns stdout.
type commandRunner func(ctx context.Context, stdin, name string, args ...string) ([]byte, error)

func defaultCommandRunner(ctx context.Context, stdin, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.WaitDelay = waitDelay
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
