// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
)

// ErrModuleNotFound is matched by every *ModuleNotFoundError.
var ErrModuleNotFound = errors.New("module not found")

// ModuleNotFoundError reports a missing entry module.
type ModuleNotFoundError struct {
	Path string
}

// Error implements error.
func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("could not find entry module %q", e.Path)
}

// Is matches ErrModuleNotFound.
func (e *ModuleNotFoundError) Is(target error) bool {
	return target == ErrModuleNotFound
}
