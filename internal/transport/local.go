package transport

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Local runs commands on the local machine.
type Local struct {
	opts Options
}

// NewLocal creates a local runner.
func NewLocal(opts Options) *Local {
	return &Local{opts: opts}
}

// Exec runs a command locally and returns exit code, stdout, stderr. A
// non-zero exit is reported through the exit code, not the error.
func (l *Local) Exec(ctx context.Context, cmd []string) (int, string, string, error) {
	if len(cmd) == 0 {
		return -1, "", "", fmt.Errorf("empty command")
	}

	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd[0], cmd[1:]...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			err = nil
		}
	}

	return exitCode, stdout.String(), stderr.String(), err
}
