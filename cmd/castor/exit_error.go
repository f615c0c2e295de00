// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// ExitFailure is the code for any failed command.
	ExitFailure = 1
	// ExitDiagnostics is returned by --strict listings that produced warnings.
	ExitDiagnostics = 3
)

// ExitError signals a non-zero exit code without calling os.Exit in RunE.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
