// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"fmt"

	"castor-cli/internal/decl"

	lua "github.com/yuin/gopher-lua"
)

// installAPI registers the castor module as a global and as a preloaded module.
func (r *Runtime) installAPI() {
	funcs := map[string]lua.LGFunction{
		"task":              r.functionTag(decl.TagTask),
		"context":           r.functionTag(decl.TagContext),
		"context_generator": r.functionTag(decl.TagContextGenerator),
		"listener":          r.functionTag(decl.TagListener),
		"symfony_task":      r.typeTag(decl.TagSymfonyTask),
		"command":           r.typeTag(decl.TagCommand),
		"namespace":         r.namespace,
	}

	mod := r.L.SetFuncs(r.L.NewTable(), funcs)
	r.L.SetGlobal(ModuleName, mod)
	r.L.PreloadModule(ModuleName, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
}

// functionTag returns castor.<kind>(fn [, opts]) which attaches a tag to fn and
// returns fn so it can be used inline in an assignment.
func (r *Runtime) functionTag(kind decl.TagKind) lua.LGFunction {
	return func(L *lua.LState) int {
		fn := L.CheckFunction(1)
		r.fnTags[fn] = append(r.fnTags[fn], r.newTag(kind, L.Get(2)))
		L.Push(fn)
		return 1
	}
}

// typeTag returns castor.<kind>(tbl [, opts]) for type-level tags.
func (r *Runtime) typeTag(kind decl.TagKind) lua.LGFunction {
	return func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		r.tblTags[tbl] = append(r.tblTags[tbl], r.newTag(kind, L.Get(2)))
		L.Push(tbl)
		return 1
	}
}

// newTag converts the options argument. Options that are not a table produce a
// tag carrying an error so resolution can report it against the declaration.
func (r *Runtime) newTag(kind decl.TagKind, opts lua.LValue) decl.Tag {
	switch v := opts.(type) {
	case *lua.LNilType:
		return decl.Tag{Kind: kind, Args: map[string]any{}}
	case *lua.LTable:
		if emptyTable(v) {
			return decl.Tag{Kind: kind, Args: map[string]any{}}
		}
		args, ok := r.toGo(v, map[*lua.LTable]bool{}).(map[string]any)
		if !ok {
			return decl.Tag{Kind: kind, Err: fmt.Errorf("options must be a table with named fields")}
		}
		return decl.Tag{Kind: kind, Args: args}
	default:
		return decl.Tag{Kind: kind, Err: fmt.Errorf("options must be a table, got %s", opts.Type())}
	}
}

// namespace implements castor.namespace(path) for the module being loaded.
func (r *Runtime) namespace(L *lua.LState) int {
	ns := L.CheckString(1)
	if r.current == nil {
		L.RaiseError("castor.namespace: %v", ErrNotLoading)
		return 0
	}
	if r.current.nsSet {
		L.RaiseError("castor.namespace: namespace already set to %q", r.namespaces[r.current.path])
		return 0
	}
	r.namespaces[r.current.path] = decl.NormalizeNamespace(ns)
	r.current.nsSet = true
	return 0
}
