// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"slices"
	"sync"
)

// Session records the absolute paths of every module loaded on its behalf.
// The list only grows. Callers read it back after discovery to drive cache
// invalidation and file watching.
type Session struct {
	mu    sync.Mutex
	files []string
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Add appends a loaded module path.
func (s *Session) Add(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, path)
}

// Files returns a copy of the loaded module paths in load order.
func (s *Session) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.files)
}
