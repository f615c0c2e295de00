// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"context"
	"fmt"
	"strconv"

	"castor-cli/internal/decl"

	lua "github.com/yuin/gopher-lua"
)

// luaFunction is a decl.Callable backed by a Lua function.
type luaFunction struct {
	r    *Runtime
	fn   *lua.LFunction
	name string
}

var _ decl.Callable = (*luaFunction)(nil)

func (r *Runtime) callable(fn *lua.LFunction, name string) *luaFunction {
	return &luaFunction{r: r, fn: fn, name: name}
}

// Name implements decl.Callable.
func (f *luaFunction) Name() string {
	return f.name
}

// Params implements decl.Callable. Go functions exposed to Lua report no
// parameters because their arity is not declared.
func (f *luaFunction) Params() []decl.Param {
	if f.fn.IsG || f.fn.Proto == nil {
		return nil
	}

	proto := f.fn.Proto
	n := int(proto.NumParameters)
	params := make([]decl.Param, 0, n+1)
	for i := range n {
		name := "arg" + strconv.Itoa(i+1)
		if i < len(proto.DbgLocals) && proto.DbgLocals[i] != nil {
			name = proto.DbgLocals[i].Name
		}
		params = append(params, decl.Param{Name: name})
	}
	if proto.IsVarArg != 0 {
		params = append(params, decl.Param{Name: "...", Variadic: true})
	}
	return params
}

// Call implements decl.Callable.
func (f *luaFunction) Call(ctx context.Context, args ...any) ([]any, error) {
	r := f.r
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = r.toLua(a)
	}

	top := r.L.GetTop()
	if err := r.pcall(ctx, f.fn, lua.MultRet, largs...); err != nil {
		return nil, fmt.Errorf("call %s: %w", f.name, err)
	}

	n := r.L.GetTop() - top
	out := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, r.toGo(r.L.Get(top+i), map[*lua.LTable]bool{}))
	}
	r.L.Pop(n)
	return out, nil
}

// toGo converts a Lua value. Tables with contiguous integer keys become []any,
// other tables map[string]any, functions decl.Callable.
func (r *Runtime) toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LFunction:
		return r.callable(v, functionLabel(v))
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return r.tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func (r *Runtime) tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	// An empty table has no shape of its own; it converts to an empty list.
	if count == 0 {
		return []any{}
	}
	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = r.toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = kv.String()
		default:
			key = k.String()
		}
		m[key] = r.toGo(v, visited)
	})
	return m
}

func emptyTable(t *lua.LTable) bool {
	k, _ := t.Next(lua.LNil)
	return k == lua.LNil
}

// toLua converts a Go value passed as a call argument.
func (r *Runtime) toLua(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := r.L.NewTable()
		for i, s := range val {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case map[string]any:
		t := r.L.NewTable()
		for k, e := range val {
			t.RawSetString(k, r.toLua(e))
		}
		return t
	case []any:
		t := r.L.NewTable()
		for i, e := range val {
			t.RawSetInt(i+1, r.toLua(e))
		}
		return t
	case *luaFunction:
		return val.fn
	case lua.LValue:
		return val
	default:
		ud := r.L.NewUserData()
		ud.Value = v
		return ud
	}
}

func functionLabel(fn *lua.LFunction) string {
	if fn.IsG || fn.Proto == nil {
		return "<go function>"
	}
	return fmt.Sprintf("<function %s:%d>", fn.Proto.SourceName, fn.Proto.LineDefined)
}
