// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"castor-cli/internal/decl"
	"castor-cli/internal/host"
	"castor-cli/internal/testutil"
)

type (
	fakeDecl struct {
		name string
		kind decl.Kind
	}

	// fakeRuntime defines the declarations scripted for a module base name when
	// that module is required.
	fakeRuntime struct {
		script   map[string][]fakeDecl
		loaded   map[string]bool
		requires []string
		funcs    []string
		types    []string
		ns       map[string]string
	}
)

func newFakeRuntime(script map[string][]fakeDecl) *fakeRuntime {
	return &fakeRuntime{script: script, loaded: map[string]bool{}, ns: map[string]string{}}
}

func (f *fakeRuntime) Require(_ context.Context, path, nsPath string) error {
	f.requires = append(f.requires, path)
	if f.loaded[path] {
		return nil
	}
	f.loaded[path] = true
	for _, d := range f.script[filepath.Base(path)] {
		f.ns[d.name] = nsPath
		if d.kind == decl.KindType {
			f.types = append(f.types, d.name)
		} else {
			f.funcs = append(f.funcs, d.name)
		}
	}
	return nil
}

func (f *fakeRuntime) Snapshot() host.Snapshot {
	return host.Snapshot{Functions: slices.Clone(f.funcs), Types: slices.Clone(f.types)}
}

func (f *fakeRuntime) Function(name string) (*decl.Declaration, bool) {
	if !slices.Contains(f.funcs, name) {
		return nil, false
	}
	return &decl.Declaration{Kind: decl.KindFunction, Name: decl.QualifiedName(f.ns[name], name)}, true
}

func (f *fakeRuntime) Type(name string) (*decl.Declaration, bool) {
	if !slices.Contains(f.types, name) {
		return nil, false
	}
	return &decl.Declaration{Kind: decl.KindType, Name: decl.QualifiedName(f.ns[name], name)}, true
}

func collect(t *testing.T, l *Loader, root string) ([]string, error) {
	t.Helper()
	var names []string
	for d, err := range l.LoadAll(context.Background(), root) {
		if err != nil {
			return names, err
		}
		names = append(names, string(d.Kind)+":"+d.Name)
	}
	return names, nil
}

func TestLoader_Modules(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"castor.lua":             "",
		"castor/zeta.lua":        "",
		"castor/alpha.lua":       "",
		"castor/sub/extra.lua":   "",
		"castor/sub/deep/x.lua":  "",
		"castor/notes.txt":       "",
		"castor/dir.lua/inner.x": "",
	})

	l := New(newFakeRuntime(nil), NewSession())
	modules, err := l.Modules(root)
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}

	type entry struct{ rel, ns string }
	var got []entry
	for _, m := range modules {
		rel, _ := filepath.Rel(root, m.Path)
		got = append(got, entry{filepath.ToSlash(rel), m.Namespace})
	}
	want := []entry{
		{"castor.lua", ""},
		{"castor/alpha.lua", ""},
		{"castor/sub/deep/x.lua", "sub/deep"},
		{"castor/sub/extra.lua", "sub"},
		{"castor/zeta.lua", ""},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Modules() = %v, want %v", got, want)
	}
}

func TestLoader_MissingEntry(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"castor/extra.lua": "",
	})
	rt := newFakeRuntime(nil)
	session := NewSession()

	_, err := collect(t, New(rt, session), root)
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("error = %v, want ErrModuleNotFound", err)
	}
	var nf *ModuleNotFoundError
	if !errors.As(err, &nf) || nf.Path != filepath.Join(root, DefaultEntryName) {
		t.Errorf("ModuleNotFoundError = %+v", nf)
	}
	if len(rt.requires) != 0 || len(session.Files()) != 0 {
		t.Errorf("nothing should load: requires %v, files %v", rt.requires, session.Files())
	}
}

func TestLoader_EntryMustBeRegularFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(root, DefaultEntryName))

	if _, err := New(newFakeRuntime(nil), NewSession()).Modules(root); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("error = %v, want ErrModuleNotFound", err)
	}
}

func TestLoader_LoadAll(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"castor.lua":           "",
		"castor/sub/extra.lua": "",
	})
	rt := newFakeRuntime(map[string][]fakeDecl{
		"castor.lua": {{"hello", decl.KindFunction}, {"Tool", decl.KindType}},
		"extra.lua":  {{"build", decl.KindFunction}, {"Migrate", decl.KindType}, {"clean", decl.KindFunction}},
	})
	session := NewSession()

	got, err := collect(t, New(rt, session), root)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	want := []string{
		"function:hello", "type:Tool",
		"function:sub/build", "function:sub/clean", "type:sub/Migrate",
	}
	if !slices.Equal(got, want) {
		t.Errorf("LoadAll() = %v, want %v", got, want)
	}

	files := session.Files()
	if len(files) != 2 || files[0] != filepath.Join(root, "castor.lua") || files[1] != filepath.Join(root, "castor", "sub", "extra.lua") {
		t.Errorf("Files() = %v", files)
	}

	// A second pass over the same runtime finds nothing new but still records
	// the loads.
	again, err := collect(t, New(rt, session), root)
	if err != nil {
		t.Fatalf("second LoadAll() error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second pass yielded %v", again)
	}
	if len(session.Files()) != 4 {
		t.Errorf("Files() after second pass = %d entries, want 4", len(session.Files()))
	}
}

func TestLoader_Repacked(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"castor.lua":       "",
		"castor/extra.lua": "",
	})

	t.Run("option", func(t *testing.T) {
		t.Parallel()

		rt := newFakeRuntime(map[string][]fakeDecl{
			"castor.lua": {{"hello", decl.KindFunction}, {"Tool", decl.KindType}},
		})
		got, err := collect(t, New(rt, NewSession(), WithRepacked(true)), root)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, []string{"function:hello"}) {
			t.Errorf("LoadAll() = %v", got)
		}
	})

	t.Run("marker defined by a module", func(t *testing.T) {
		t.Parallel()

		rt := newFakeRuntime(map[string][]fakeDecl{
			"castor.lua": {{"hello", decl.KindFunction}, {host.RepackedMarker, decl.KindType}, {"Tool", decl.KindType}},
			"extra.lua":  {{"Other", decl.KindType}, {"build", decl.KindFunction}},
		})
		got, err := collect(t, New(rt, NewSession()), root)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, []string{"function:hello", "function:build"}) {
			t.Errorf("LoadAll() = %v", got)
		}
	})
}

func TestLoader_CustomLayout(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"tasks.lua":          "",
		"ext/deploy.tasks":   "",
		"ext/ignored.lua":    "",
		"castor/extra.tasks": "",
	})
	l := New(newFakeRuntime(nil), NewSession(),
		WithEntryName("tasks.lua"), WithExtensionDir("ext"), WithSuffix(".tasks"))

	modules, err := l.Modules(root)
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if len(modules) != 2 || filepath.Base(modules[1].Path) != "deploy.tasks" {
		t.Errorf("Modules() = %+v", modules)
	}
}

func TestLoader_StopsEarly(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"castor.lua":       "",
		"castor/extra.lua": "",
	})
	rt := newFakeRuntime(map[string][]fakeDecl{
		"castor.lua": {{"a", decl.KindFunction}, {"b", decl.KindFunction}},
		"extra.lua":  {{"c", decl.KindFunction}},
	})

	for range New(rt, NewSession()).LoadAll(context.Background(), root) {
		break
	}
	if len(rt.requires) != 1 {
		t.Errorf("requires = %v, want only the entry module", rt.requires)
	}
}

func TestDiffer_SecondLoadIsEmpty(t *testing.T) {
	t.Parallel()

	rt := newFakeRuntime(map[string][]fakeDecl{
		"a.lua": {{"one", decl.KindFunction}},
	})
	d := NewDiffer(rt)
	ctx := context.Background()

	first, err := d.Load(ctx, "/p/a.lua", "", true)
	if err != nil || len(first) != 1 {
		t.Fatalf("first Load() = %v, %v", first, err)
	}
	second, err := d.Load(ctx, "/p/a.lua", "", true)
	if err != nil || len(second) != 0 {
		t.Errorf("second Load() = %v, %v", second, err)
	}
}
