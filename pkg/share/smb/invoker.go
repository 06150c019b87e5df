package smb

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// ============================================================================
// External Invocation
// ============================================================================

// Result holds the outcome of one external tool invocation.
//
// A Result is produced once per Invoker call and consumed immediately by
// the listing parser or the error classifier; it is never retained.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Invoker runs the external client tool and captures its streams.
//
// The production implementation is ExecInvoker; tests substitute a
// scripted fake. Run returns an error only when the invocation could not
// be carried out at all (binary missing, context cancelled before or
// during the wait). A tool that started and exited non-zero is NOT an
// error at this layer: the exit code and streams come back in the Result
// for the caller to classify.
//
// Once an invocation has actually started, cancellation semantics are
// governed by this collaborator: the adapter does not guarantee the
// remote side effect did not occur just because the caller's wait was
// cancelled.
type Invoker interface {
	Run(ctx context.Context, path string, args []string, env map[string]string) (*Result, error)
}

// ExecInvoker runs the tool through os/exec, inheriting the parent
// environment plus any invocation-specific variables.
type ExecInvoker struct{}

// Run executes path with args, waits for completion, and captures both
// streams. The extra env entries are appended after the inherited
// environment so they take precedence.
func (ExecInvoker) Run(ctx context.Context, path string, args []string, env map[string]string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args...)

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Tool ran and failed; hand the transcript to the classifier.
			return &Result{
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	return &Result{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
