// Package scripting provides a sandboxed GopherLua environment for scripted
// special abilities. Scripts register abilities by kind; the Manager exposes
// them to the rules engine as rpg.Ability values.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget used when none is configured.
const DefaultInstructionLimit = 100_000

// unsafeGlobals are left behind by OpenBase and give scripts file or
// module access.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// opBudget cancels itself once Done has been polled budget times. The VM
// polls Done once per opcode while a context is set, so the budget is an
// instruction count.
type opBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *opBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// NewSandboxedState creates an LState with only the base, table, string
// and math libraries, no file or module loading, and an opcode budget of
// instLimit for everything it runs until the budget is reset.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the returned state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	resetBudget(L, instLimit)
	return L
}

// resetBudget gives L a fresh opcode budget. The returned cancel releases it.
func resetBudget(L *lua.LState, instLimit int) context.CancelFunc {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(instLimit))
	L.SetContext(b)
	return cancel
}
