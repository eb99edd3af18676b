package script

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single script run when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// globals that scripts may not call: they load code or reach the state's
// real global table.
var blockedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"getfenv",
	"setfenv",
}

// newState creates a sandboxed Lua state with only the safe standard
// libraries opened.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	// The string library doubles as the string metatable; hide it from
	// getmetatable so scripts only ever see their own copy.
	if mt, ok := L.GetGlobal(lua.StringLibName).(*lua.LTable); ok {
		mt.RawSetString("__metatable", lua.LFalse)
	}
	return L
}

// copyTable returns a shallow copy of t. Self references point at the copy.
func copyTable(L *lua.LState, t *lua.LTable) *lua.LTable {
	c := L.NewTable()
	t.ForEach(func(k, v lua.LValue) {
		if v == lua.LValue(t) {
			v = c
		}
		c.RawSet(k, v)
	})
	return c
}

// openSafeLibraries opens base, table, string and math. io, os, debug,
// package and channel stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// stringTable builds a Lua sequence from values.
func stringTable(L *lua.LState, values []string) *lua.LTable {
	t := L.CreateTable(len(values), 0)
	for _, v := range values {
		t.Append(lua.LString(v))
	}
	return t
}

// queryTable maps each query key to its first value.
func queryTable(L *lua.LState, query map[string][]string) *lua.LTable {
	t := L.CreateTable(0, len(query))
	for k, v := range query {
		if len(v) > 0 {
			t.RawSetString(k, lua.LString(v[0]))
		}
	}
	return t
}
