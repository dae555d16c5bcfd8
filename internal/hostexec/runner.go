// Package hostexec wraps the host shell-outs and file reads the panel relies on
// behind narrow interfaces so callers can be tested without a real host.
package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hostdeck/panel/backend/internal/util"
)

// DefaultTimeout bounds every command started by ExecRunner.
const DefaultTimeout = 5 * time.Second

// ErrNotFound is returned when the requested binary is not installed.
var ErrNotFound = errors.New("command not found")

// Runner executes a host command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// FileInspector reads file metadata and content from the host.
type FileInspector interface {
	Stat(path string) (fs.FileMode, error)
	ReadFile(path string) ([]byte, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns a runner with the given timeout, or DefaultTimeout when zero.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

// Run starts name with args and waits at most Timeout for it to finish.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stdout.String(), fmt.Errorf("%s timed out after %s: %w", name, timeout, ctx.Err())
		}
		msg := strings.TrimSpace(util.Truncate(stderr.String(), 512))
		if msg != "" {
			return stdout.String(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return stdout.String(), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

// OSFiles implements FileInspector against the local filesystem.
type OSFiles struct{}

func (OSFiles) Stat(path string) (fs.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Mode(), nil
}

func (OSFiles) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
