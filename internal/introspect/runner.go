// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCommandFailed is the sentinel matched by every *CommandError.
var ErrCommandFailed = errors.New("console command failed")

type (
	// Runner runs a command in dir and returns its standard output. A non-zero
	// exit must be reported as an error.
	Runner interface {
		Output(ctx context.Context, dir string, argv []string) ([]byte, error)
	}

	// RunnerFunc adapts a function to Runner.
	RunnerFunc func(ctx context.Context, dir string, argv []string) ([]byte, error)

	// ExecRunner runs commands as child processes.
	ExecRunner struct {
		// Env is appended to the inherited environment when non-empty.
		Env []string
	}

	// CommandError reports a console invocation that could not start or exited
	// non-zero.
	CommandError struct {
		Argv     []string
		Dir      string
		ExitCode int
		Stderr   string
		Err      error
	}
)

// Output implements Runner.
func (f RunnerFunc) Output(ctx context.Context, dir string, argv []string) ([]byte, error) {
	return f(ctx, dir, argv)
}

// Output implements Runner.
func (r ExecRunner) Output(ctx context.Context, dir string, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, &CommandError{Dir: dir, ExitCode: -1, Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cerr := &CommandError{Argv: argv, Dir: dir, ExitCode: -1, Stderr: strings.TrimSpace(stderr.String()), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
		}
		return nil, cerr
	}
	return stdout.Bytes(), nil
}

// Error implements error.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %q", ErrCommandFailed, strings.Join(e.Argv, " "))
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" exited with code %d", e.ExitCode)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying process error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is matches ErrCommandFailed.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}
