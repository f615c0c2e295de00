// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"castor-cli/internal/decl"
	"castor-cli/internal/host"
)

func writeModule(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("failed to write module: %v", err)
	}
	return path
}

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	rt := New(opts...)
	t.Cleanup(func() {
		if err := rt.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return rt
}

func TestRuntime_SnapshotOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor.lua", `
function zeta() end
function alpha() end
Config = {}
local function hidden() end
counter = 1
function middle() end
`)

	rt := newRuntime(t)
	if err := rt.Require(context.Background(), path, ""); err != nil {
		t.Fatalf("Require() error = %v", err)
	}

	snap := rt.Snapshot()
	if want := []string{"zeta", "alpha", "middle"}; !slices.Equal(snap.Functions, want) {
		t.Errorf("Functions = %v, want %v", snap.Functions, want)
	}
	if want := []string{"Config"}; !slices.Equal(snap.Types, want) {
		t.Errorf("Types = %v, want %v", snap.Types, want)
	}
}

func TestRuntime_RequireOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor.lua", `
loads = (loads or 0) + 1
function build() end
`)

	rt := newRuntime(t)
	ctx := context.Background()
	if err := rt.Require(ctx, path, ""); err != nil {
		t.Fatalf("Require() error = %v", err)
	}
	before := rt.Snapshot()
	if err := rt.Require(ctx, path, ""); err != nil {
		t.Fatalf("second Require() error = %v", err)
	}
	after := rt.Snapshot()

	if diff := host.Diff(before.Functions, after.Functions); len(diff) != 0 {
		t.Errorf("second load introduced %v", diff)
	}
	if got := rt.L.GetGlobal("loads").String(); got != "1" {
		t.Errorf("module executed %s times, want 1", got)
	}
	if got := rt.Loaded(); len(got) != 1 {
		t.Errorf("Loaded() = %v, want one path", got)
	}
}

func TestRuntime_FunctionTagsAndNamespace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor/sub/extra.lua", `
local castor = require("castor")

function build() end
castor.task(build, { description = "Build it", aliases = { "b" } })

function notify() end
castor.listener(notify, { event = "castor.before_execute" })
castor.listener(notify, { event = "castor.after_execute", priority = 10 })
`)

	rt := newRuntime(t)
	if err := rt.Require(context.Background(), path, "sub"); err != nil {
		t.Fatalf("Require() error = %v", err)
	}

	build, ok := rt.Function("build")
	if !ok {
		t.Fatal("Function(build) not found")
	}
	if build.Name != "sub/build" {
		t.Errorf("Name = %q, want sub/build", build.Name)
	}
	if build.Module != path {
		t.Errorf("Module = %q, want %q", build.Module, path)
	}
	tag, ok := build.Tag(decl.TagTask)
	if !ok {
		t.Fatal("task tag missing")
	}
	if tag.Args["description"] != "Build it" {
		t.Errorf("description = %v", tag.Args["description"])
	}
	if aliases, ok := tag.Args["aliases"].([]any); !ok || len(aliases) != 1 || aliases[0] != "b" {
		t.Errorf("aliases = %#v", tag.Args["aliases"])
	}

	notify, _ := rt.Function("notify")
	listeners := notify.TagsOf(decl.TagListener)
	if len(listeners) != 2 {
		t.Fatalf("listener tags = %d, want 2", len(listeners))
	}
	if listeners[1].Args["priority"] != int64(10) {
		t.Errorf("priority = %#v, want 10", listeners[1].Args["priority"])
	}
}

func TestRuntime_ExplicitNamespace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor/tools.lua", `
function up() end
castor.namespace("app\\docker")
`)

	rt := newRuntime(t)
	if err := rt.Require(context.Background(), path, ""); err != nil {
		t.Fatalf("Require() error = %v", err)
	}
	up, _ := rt.Function("up")
	if up.Name != "app/docker/up" {
		t.Errorf("Name = %q, want app/docker/up", up.Name)
	}
}

func TestRuntime_EmptyTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor.lua", `
function build() end
castor.task(build, { aliases = {} })

function clean() end
castor.task(clean, {})
`)

	rt := newRuntime(t)
	if err := rt.Require(context.Background(), path, ""); err != nil {
		t.Fatalf("Require() error = %v", err)
	}

	build, _ := rt.Function("build")
	tag, _ := build.Tag(decl.TagTask)
	if aliases, ok := tag.Args["aliases"].([]any); !ok || len(aliases) != 0 {
		t.Errorf("aliases = %#v, want empty list", tag.Args["aliases"])
	}

	clean, _ := rt.Function("clean")
	tag, _ = clean.Tag(decl.TagTask)
	if tag.Err != nil || tag.Args == nil || len(tag.Args) != 0 {
		t.Errorf("tag = %+v, want empty options", tag)
	}
}

func TestRuntime_DirectoryNamespaceKeepsDots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor/v1.2/x.lua", `function build() end`)

	rt := newRuntime(t)
	if err := rt.Require(context.Background(), path, "v1.2"); err != nil {
		t.Fatalf("Require() error = %v", err)
	}
	build, _ := rt.Function("build")
	if build.Name != "v1.2/build" {
		t.Errorf("Name = %q, want v1.2/build", build.Name)
	}
}

func TestRuntime_BadOptionsProduceTagError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor.lua", `
function build() end
castor.task(build, "not a table")
`)

	rt := newRuntime(t)
	if err := rt.Require(context.Background(), path, ""); err != nil {
		t.Fatalf("Require() error = %v", err)
	}
	build, _ := rt.Function("build")
	tag, _ := build.Tag(decl.TagTask)
	if tag.Err == nil {
		t.Error("expected tag error for non-table options")
	}
}

func TestRuntime_ParamsAndCall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor.lua", `
function two(a, b) return a + b end
function many(...) end
function contexts()
  return {
    prod = function() return { host = "prod" } end,
    dev = function() return { host = "dev" } end,
  }
end
`)

	rt := newRuntime(t)
	ctx := context.Background()
	if err := rt.Require(ctx, path, ""); err != nil {
		t.Fatalf("Require() error = %v", err)
	}

	two, _ := rt.Function("two")
	params := two.Params()
	if len(params) != 2 || params[0].Name != "a" || params[1].Name != "b" {
		t.Errorf("Params() = %+v", params)
	}
	out, err := two.Invoke(ctx, 2, 3)
	if err != nil || len(out) != 1 || out[0] != int64(5) {
		t.Errorf("Invoke() = %v, %v", out, err)
	}

	many, _ := rt.Function("many")
	if p := many.Params(); len(p) != 1 || !p[0].Variadic {
		t.Errorf("variadic Params() = %+v", p)
	}

	gen, _ := rt.Function("contexts")
	out, err = gen.Invoke(ctx)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	m, ok := out[0].(map[string]any)
	if !ok || len(m) != 2 {
		t.Fatalf("generator result = %#v", out)
	}
	prod, ok := m["prod"].(decl.Callable)
	if !ok {
		t.Fatalf("prod = %T, want decl.Callable", m["prod"])
	}
	if len(prod.Params()) != 0 {
		t.Errorf("prod Params() = %v", prod.Params())
	}
	res, err := prod.Call(ctx)
	if err != nil {
		t.Fatalf("prod.Call() error = %v", err)
	}
	if got := res[0].(map[string]any)["host"]; got != "prod" {
		t.Errorf("host = %v, want prod", got)
	}
}

func TestRuntime_TypeTagsAndRepackedMarker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor.lua", `
Migrate = castor.symfony_task({}, { console = { "php", "bin/console" } })
castor.command(Migrate, { name = "doctrine:migrations:migrate" })
`)

	rt := newRuntime(t, WithRepackedMarker())
	if err := rt.Require(context.Background(), path, ""); err != nil {
		t.Fatalf("Require() error = %v", err)
	}

	if _, ok := rt.Type(host.RepackedMarker); !ok {
		t.Error("repacked marker should be visible")
	}
	if slices.Contains(rt.Snapshot().Types, host.RepackedMarker) {
		t.Error("marker defined by the host must not appear as a user type")
	}

	typ, ok := rt.Type("Migrate")
	if !ok {
		t.Fatal("Type(Migrate) not found")
	}
	if len(typ.Tags) != 2 || typ.Tags[0].Kind != decl.TagSymfonyTask || typ.Tags[1].Kind != decl.TagCommand {
		t.Errorf("Tags = %+v", typ.Tags)
	}
}

func TestRuntime_ErrorsAndSandbox(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt := newRuntime(t)
	ctx := context.Background()

	syntax := writeModule(t, dir, "syntax.lua", `function (`)
	if err := rt.Require(ctx, syntax, ""); err == nil {
		t.Error("expected compile error")
	}

	runtimeErr := writeModule(t, dir, "boom.lua", `error("boom")`)
	if err := rt.Require(ctx, runtimeErr, ""); err == nil {
		t.Error("expected runtime error")
	}

	sandboxed := writeModule(t, dir, "sandbox.lua", `dofile("/etc/passwd")`)
	if err := rt.Require(ctx, sandboxed, ""); err == nil {
		t.Error("dofile should not be available")
	}

	if err := rt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := rt.Require(ctx, filepath.Join(dir, "other.lua"), ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Require() after Close error = %v, want ErrClosed", err)
	}
}

func TestRuntime_LoadTimeout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeModule(t, dir, "castor.lua", `while true do end`)

	rt := newRuntime(t, WithLoadTimeout(50*time.Millisecond))
	if err := rt.Require(context.Background(), path, ""); err == nil {
		t.Fatal("expected an error for a module that never returns")
	}
}
