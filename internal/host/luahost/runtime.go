// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"castor-cli/internal/decl"
	"castor-cli/internal/host"

	lua "github.com/yuin/gopher-lua"
)

// ModuleName is the name of the castor API module.
const ModuleName = "castor"

type (
	// moduleState is the module currently executing its top-level code.
	moduleState struct {
		path  string
		nsSet bool
	}

	// Runtime is a host.Runtime backed by a single gopher-lua state.
	//
	// gopher-lua's LState is not goroutine-safe. The mutex serializes every entry
	// point; Go functions called back from Lua run with the lock already held and
	// must not re-enter those entry points.
	Runtime struct {
		L *lua.LState

		mu      sync.Mutex
		closed  bool
		logger  *slog.Logger
		repack  bool
		allLibs bool
		timeout time.Duration

		loaded     map[string]bool
		namespaces map[string]string
		order      []string
		origins    map[string]string
		current    *moduleState

		fnTags  map[*lua.LFunction][]decl.Tag
		tblTags map[*lua.LTable][]decl.Tag
	}

	// Option configures a Runtime.
	Option func(*Runtime)
)

var _ host.Runtime = (*Runtime)(nil)

// WithLogger sets the logger used for module load diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithRepackedMarker defines the repacked-application marker type before any
// module is loaded.
func WithRepackedMarker() Option {
	return func(r *Runtime) {
		r.repack = true
	}
}

// WithAllLibraries opens the io and os libraries in addition to the safe set.
func WithAllLibraries() Option {
	return func(r *Runtime) {
		r.allLibs = true
	}
}

// WithLoadTimeout bounds the execution of each module's top-level code.
// Zero means no limit.
func WithLoadTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// New creates a sandboxed Lua runtime with the castor API installed.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		logger:     slog.Default(),
		loaded:     make(map[string]bool),
		namespaces: make(map[string]string),
		origins:    make(map[string]string),
		fnTags:     make(map[*lua.LFunction][]decl.Tag),
		tblTags:    make(map[*lua.LTable][]decl.Tag),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openLibraries(r.L, r.allLibs)
	r.installAPI()
	if r.repack {
		r.L.SetGlobal(host.RepackedMarker, r.L.NewTable())
	}
	r.installRecorder()

	return r
}

// openLibraries opens the safe standard libraries and removes the functions
// that load code from disk behind the loader's back.
func openLibraries(L *lua.LState, all bool) {
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	if all {
		lua.OpenOs(L)
		lua.OpenIo(L)
	}

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}
}

// installRecorder hooks assignments of new globals so their introduction order
// and originating module are known.
func (r *Runtime) installRecorder() {
	mt := r.L.NewTable()
	r.L.SetField(mt, "__newindex", r.L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		key := L.CheckAny(2)
		val := L.CheckAny(3)
		tbl.RawSet(key, val)

		name, ok := key.(lua.LString)
		if !ok || val == lua.LNil || r.current == nil {
			return 0
		}
		r.record(string(name))
		return 0
	}))
	r.L.SetMetatable(r.L.G.Global, mt)
}

// record appends name to the introduction order. A global that was cleared and
// assigned again moves to the end.
func (r *Runtime) record(name string) {
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	r.order = append(r.order, name)
	r.origins[name] = r.current.path
}

// Require executes the module at path once.
func (r *Runtime) Require(ctx context.Context, path, nsPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("luahost: resolve %s: %w", path, err)
	}
	if r.loaded[abs] {
		return nil
	}
	r.loaded[abs] = true

	fn, err := r.L.LoadFile(abs)
	if err != nil {
		return fmt.Errorf("luahost: compile %s: %w", abs, err)
	}

	r.namespaces[abs] = nsPath
	r.current = &moduleState{path: abs}
	defer func() { r.current = nil }()

	r.logger.Debug("loading module", "path", abs, "namespace", nsPath)

	if r.timeout > 0 && ctx != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.pcall(ctx, fn, 0); err != nil {
		return fmt.Errorf("luahost: execute %s: %w", abs, err)
	}
	return nil
}

// pcall runs fn with panic recovery and leaves nret results on the stack.
func (r *Runtime) pcall(ctx context.Context, fn *lua.LFunction, nret int, args ...lua.LValue) (err error) {
	if ctx != nil {
		r.L.SetContext(ctx)
		defer r.L.RemoveContext()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()

	r.L.Push(fn)
	for _, a := range args {
		r.L.Push(a)
	}
	return r.L.PCall(len(args), nret, nil)
}

// Snapshot returns the user-introduced global functions and tables.
func (r *Runtime) Snapshot() host.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var snap host.Snapshot
	if r.closed {
		return snap
	}
	for _, name := range r.order {
		switch r.L.G.Global.RawGetString(name).(type) {
		case *lua.LFunction:
			snap.Functions = append(snap.Functions, name)
		case *lua.LTable:
			snap.Types = append(snap.Types, name)
		}
	}
	return snap
}

// Function returns the declaration for a global function.
func (r *Runtime) Function(name string) (*decl.Declaration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false
	}
	fn, ok := r.L.G.Global.RawGetString(name).(*lua.LFunction)
	if !ok {
		return nil, false
	}

	module := r.origins[name]
	return &decl.Declaration{
		Kind:     decl.KindFunction,
		Name:     decl.QualifiedName(r.namespaces[module], name),
		Module:   module,
		Tags:     slices.Clone(r.fnTags[fn]),
		Callable: r.callable(fn, name),
	}, true
}

// Type returns the declaration for a global table.
func (r *Runtime) Type(name string) (*decl.Declaration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false
	}
	tbl, ok := r.L.G.Global.RawGetString(name).(*lua.LTable)
	if !ok {
		return nil, false
	}

	module := r.origins[name]
	return &decl.Declaration{
		Kind:   decl.KindType,
		Name:   decl.QualifiedName(r.namespaces[module], name),
		Module: module,
		Tags:   slices.Clone(r.tblTags[tbl]),
	}, true
}

// Loaded returns the absolute paths of every module executed so far, sorted.
func (r *Runtime) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.loaded))
	for p := range r.loaded {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Close releases the Lua state.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.L.Close()
	r.closed = true
	return nil
}
