package scripting

import lua "github.com/yuin/gopher-lua"

// registerModules defines the rpg global table in L:
//
//	rpg.register_special(kind, fn)  registers fn as the ability for kind
//	rpg.moves                       list of move names
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) registerModules(L *lua.LState, pending map[string]*lua.LFunction) {
	mod := L.NewTable()
	L.SetField(mod, "register_special", L.NewFunction(func(L *lua.LState) int {
		kind := L.CheckString(1)
		fn := L.CheckFunction(2)
		if kind == "" {
			L.ArgError(1, "kind must not be empty")
			return 0
		}
		if _, dup := pending[kind]; dup {
			L.RaiseError("special %q registered twice", kind)
			return 0
		}
		pending[kind] = fn
		return 0
	}))
	moves := L.NewTable()
	for _, mv := range moveNames() {
		moves.Append(lua.LString(mv))
	}
	L.SetField(mod, "moves", moves)
	L.SetGlobal("rpg", mod)
}
