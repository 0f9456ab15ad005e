// Package report renders accessibility reports to PDF.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	ErrRenderTimeout = errors.New("report rendering timed out")
	ErrEmptyOutput   = errors.New("renderer produced no output")
)

// Renderer converts an HTML document to PDF.
type Renderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// ProcessRenderer runs an external command that reads HTML on stdin and
// writes PDF to stdout. The process is killed when the timeout elapses and
// is always waited for.
type ProcessRenderer struct {
	command string
	args    []string
	timeout time.Duration
}

func NewProcessRenderer(command string, args []string, timeout time.Duration) *ProcessRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ProcessRenderer{command: command, args: args, timeout: timeout}
}

func (r *ProcessRenderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Stdin = bytes.NewReader(html)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Bound the wait for I/O goroutines after the process is killed.
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, ErrRenderTimeout
	}
	if err != nil {
		return nil, fmt.Errorf("renderer %s failed: %w: %s", r.command, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, ErrEmptyOutput
	}
	return stdout.Bytes(), nil
}
