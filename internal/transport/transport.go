// Package transport abstracts external command execution so callers that
// shell out to sigrok-cli can be tested against a fake runner.
package transport

import (
	"context"
	"time"
)

// Runner executes a command and returns its exit code, stdout and stderr.
// cmd is argv, not a shell string.
type Runner interface {
	Exec(ctx context.Context, cmd []string) (exitCode int, stdout, stderr string, err error)
}

// Options configures runner behavior.
type Options struct {
	Timeout time.Duration // per-command timeout, 0 = none
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{Timeout: 2 * time.Minute}
}
