// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	for _, errno := range []syscall.Errno{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE} {
		if !isFatalFsnotifyError(fmt.Errorf("inotify: %w", errno)) {
			t.Errorf("%v should be fatal", errno)
		}
	}
	if isFatalFsnotifyError(errors.New("queue overflow")) {
		t.Error("generic errors should not be fatal")
	}
}
