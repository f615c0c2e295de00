// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "discover tasks"}, "failed to discover tasks"},
		{
			"with resource",
			&ActionableError{Operation: "load module", Resource: "castor/docker.lua"},
			"failed to load module: castor/docker.lua",
		},
		{
			"with cause",
			&ActionableError{Operation: "load config", Cause: errors.New("bad field")},
			"failed to load config: bad field",
		},
		{
			"full",
			&ActionableError{Operation: "load module", Resource: "castor.lua", Cause: errors.New("no such file")},
			"failed to load module: castor.lua: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_UnwrapChain(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().WithOperation("resolve").Wrap(fmt.Errorf("inner: %w", sentinel)).BuildError()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should reach the wrapped sentinel")
	}

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("errors.As should find *ActionableError")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "introspect console",
		Resource:    "php bin/console",
		Suggestions: []string{"run it by hand", "clear the cache"},
		Cause:       fmt.Errorf("exit 1: %w", errors.New("boom")),
	}

	short := err.Format(false)
	if !strings.HasPrefix(short, err.Error()) {
		t.Errorf("Format(false) should start with Error(): %q", short)
	}
	if !strings.Contains(short, "\n  • run it by hand") || !strings.Contains(short, "\n  • clear the cache") {
		t.Errorf("Format(false) missing suggestions: %q", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the chain")
	}

	long := err.Format(true)
	if !strings.Contains(long, "Error chain:\n  1. exit 1: boom\n  2. boom") {
		t.Errorf("Format(true) chain = %q", long)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should be nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want untyped nil", err)
	}

	ctx := NewErrorContext().
		WithIssue(TaskNotFoundId).
		WithOperation("show task").
		WithResource("db:migrate").
		WithSuggestion("run castor list").
		WithSuggestions("use namespace:name")
	ae := ctx.Build()
	if ae.Issue != TaskNotFoundId || ae.Operation != "show task" || ae.Resource != "db:migrate" {
		t.Errorf("Build() = %+v", ae)
	}
	if !ae.HasSuggestions() || len(ae.Suggestions) != 2 {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}

	ctx.WithSuggestion("third")
	if len(ae.Suggestions) != 2 {
		t.Error("built error must not share suggestions with the builder")
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	if Wrap(nil, "op", "res") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	cause := errors.New("cause")
	err := Wrap(cause, "open cache", "/tmp/cache.db")
	if err.Error() != "failed to open cache: /tmp/cache.db: cause" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Wrap should keep the cause reachable")
	}
}
