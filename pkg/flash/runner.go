package flash

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// Runner executes an external command and returns its combined output.
// The production implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner runs commands through os/exec. When echo is set the
// command output is streamed there while being captured.
type execRunner struct {
	echo io.Writer
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var buf bytes.Buffer
	var sink io.Writer = &buf
	if r.echo != nil {
		sink = io.MultiWriter(&buf, r.echo)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	if err := cmd.Run(); err != nil {
		return buf.String(), &CommandError{Name: name, Args: args, Output: buf.String(), Err: err}
	}
	return buf.String(), nil
}
