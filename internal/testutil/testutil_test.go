// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteProject(t *testing.T) {
	t.Parallel()

	root := WriteProject(t, map[string]string{
		"castor.lua":           "-- entry",
		"castor/sub/extra.lua": "-- extra",
	})

	for rel, want := range map[string]string{
		"castor.lua":           "-- entry",
		"castor/sub/extra.lua": "-- extra",
	} {
		got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", rel, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}
}
