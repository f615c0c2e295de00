// SPDX-License-Identifier: MPL-2.0

package decl

import (
	"context"
	"errors"
	"testing"
)

func TestQualifiedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ns, short, want string
	}{
		{ns: "", short: "build", want: "build"},
		{ns: "sub", short: "build", want: "sub/build"},
		{ns: "/a//b/", short: "c", want: "a/b/c"},
		{ns: "v1.2", short: "x", want: "v1.2/x"},
		{ns: `a\b`, short: "x", want: `a\b/x`},
	}
	for _, tt := range tests {
		if got := QualifiedName(tt.ns, tt.short); got != tt.want {
			t.Errorf("QualifiedName(%q, %q) = %q, want %q", tt.ns, tt.short, got, tt.want)
		}
	}
}

func TestNormalizeNamespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ns, want string
	}{
		{ns: "", want: ""},
		{ns: `app\docker`, want: "app/docker"},
		{ns: "app.docker", want: "app/docker"},
		{ns: "app/docker/", want: "app/docker"},
	}
	for _, tt := range tests {
		if got := NormalizeNamespace(tt.ns); got != tt.want {
			t.Errorf("NormalizeNamespace(%q) = %q, want %q", tt.ns, got, tt.want)
		}
	}
}

func TestDeclaration_NameParts(t *testing.T) {
	t.Parallel()

	d := &Declaration{Name: "sub/deep/build"}
	if got := d.ShortName(); got != "build" {
		t.Errorf("ShortName() = %q, want build", got)
	}
	if got := d.NamespacePath(); got != "sub/deep" {
		t.Errorf("NamespacePath() = %q, want sub/deep", got)
	}

	root := &Declaration{Name: "build"}
	if got := root.NamespacePath(); got != "" {
		t.Errorf("NamespacePath() = %q, want empty", got)
	}
}

func TestDeclaration_Tags(t *testing.T) {
	t.Parallel()

	d := &Declaration{Tags: []Tag{
		{Kind: TagListener, Args: map[string]any{"event": "a"}},
		{Kind: TagTask},
		{Kind: TagListener, Args: map[string]any{"event": "b"}},
	}}

	listeners := d.TagsOf(TagListener)
	if len(listeners) != 2 || listeners[0].Args["event"] != "a" || listeners[1].Args["event"] != "b" {
		t.Errorf("TagsOf(listener) = %+v", listeners)
	}
	if _, ok := d.Tag(TagContext); ok {
		t.Error("Tag(context) should not be found")
	}
}

func TestDeclaration_Invoke(t *testing.T) {
	t.Parallel()

	typ := &Declaration{Kind: KindType, Name: "Cmd"}
	if _, err := typ.Invoke(context.Background()); !errors.Is(err, ErrNotCallable) {
		t.Errorf("Invoke() on type error = %v, want ErrNotCallable", err)
	}

	fn := &Declaration{Kind: KindFunction, Name: "f", Callable: &Func{
		Fn: func(_ context.Context, _ ...any) ([]any, error) { return []any{"ok"}, nil },
	}}
	out, err := fn.Invoke(context.Background())
	if err != nil || len(out) != 1 || out[0] != "ok" {
		t.Errorf("Invoke() = %v, %v", out, err)
	}
}
