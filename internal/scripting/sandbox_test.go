package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/culturebot/rpg/internal/scripting"
)

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	require.NotNil(t, L)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_DangerousGlobalsNil(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	require.NotNil(t, L)
	defer L.Close()
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	require.NotNil(t, L)
	defer L.Close()
	err := L.DoString(`
		local x = math.floor(7 / 2)
		assert(x == 3, "math.floor failed")
		local s = string.upper("bleed")
		assert(s == "BLEED", "string.upper failed")
	`)
	assert.NoError(t, err)
}

func TestNewSandboxedState_InstructionLimitExceeded(t *testing.T) {
	L := scripting.NewSandboxedState(10)
	require.NotNil(t, L)
	defer L.Close()
	assert.Error(t, L.DoString(`while true do end`))
}

func TestProperty_InstructionLimitAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		L := scripting.NewSandboxedState(limit)
		defer L.Close()
		if err := L.DoString(`while true do end`); err == nil {
			t.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
