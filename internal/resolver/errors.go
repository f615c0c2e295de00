// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"

	"castor-cli/internal/decl"
)

// ErrFunctionConfiguration is matched by every *FunctionConfigurationError.
var ErrFunctionConfiguration = errors.New("declaration is not properly configured")

// FunctionConfigurationError reports metadata that failed validation. It names
// the declaration and the tag kind the resolver expected.
type FunctionConfigurationError struct {
	Decl    *decl.Declaration
	Kind    decl.TagKind
	Message string
	Cause   error
}

func newConfigError(d *decl.Declaration, kind decl.TagKind, cause error, format string, args ...any) *FunctionConfigurationError {
	return &FunctionConfigurationError{
		Decl:    d,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements error.
func (e *FunctionConfigurationError) Error() string {
	msg := fmt.Sprintf("%s %q is not properly configured: %s", e.Decl.Kind, e.Decl.Name, e.Message)
	if e.Cause != nil {
		msg += " " + e.Cause.Error()
	}
	if e.Decl.Module != "" {
		msg += fmt.Sprintf(" (defined in %s)", e.Decl.Module)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FunctionConfigurationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrFunctionConfiguration.
func (e *FunctionConfigurationError) Is(target error) bool {
	return target == ErrFunctionConfiguration
}
