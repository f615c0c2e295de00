// SPDX-License-Identifier: MPL-2.0

package luahost

import "errors"

var (
	// ErrClosed is returned when operating on a closed runtime.
	ErrClosed = errors.New("lua runtime is closed")
	// ErrNotLoading is raised when a module-scoped API is called outside a module load.
	ErrNotLoading = errors.New("no module is being loaded")
)
