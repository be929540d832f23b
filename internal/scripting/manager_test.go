package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/culturebot/rpg/internal/game/rpg"
	"github.com/culturebot/rpg/internal/scripting"
)

func newTestManager(t testing.TB, instLimit int) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core), instLimit)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

const punchScript = `
rpg.register_special("punch", function(caster, opponent, opponent_move)
	local dmg = caster.strength * 2
	if opponent_move == "defend" then
		dmg = caster.strength
	end
	opponent.health = opponent.health - dmg
	return caster.name .. " punched " .. opponent.name .. " for " .. dmg
end)
`

func TestManager_Load_RegistersSpecials(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	dir := writeTempLua(t, map[string]string{
		"punch.lua": punchScript,
		"notes.txt": "ignored",
		"dodge.lua": `rpg.register_special("dodge", function() return "whoosh" end)`,
	})
	require.NoError(t, mgr.Load(dir))
	assert.Equal(t, []string{"dodge", "punch"}, mgr.Specials())
	assert.Equal(t, 1, logs.FilterMessage("scripts loaded").Len())
}

func TestManager_ScriptedAbilityAppliesEffects(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(writeTempLua(t, map[string]string{"punch.lua": punchScript})))

	abilities := rpg.DefaultAbilities()
	require.NoError(t, mgr.RegisterAbilities(abilities))
	assert.True(t, abilities.Implemented("punch"))

	viking := rpg.NewEntity(rpg.RoleHero, "Viking", 3, 6, 4)
	viking.Special = "punch"
	viking.Charged = true
	troll := rpg.NewEntity(rpg.RoleEnemy, "Troll", 2, 10, 4)

	text, err := rpg.NewEngine(abilities).UseSpecial(viking, troll, rpg.Rest)
	require.NoError(t, err)
	assert.Equal(t, "Viking punched Troll for 6", text)
	assert.Equal(t, 4, troll.Health)
	assert.False(t, viking.Charged)
}

func TestManager_ScriptedAbilityCanEvade(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(writeTempLua(t, map[string]string{
		"dodge.lua": `rpg.register_special("dodge", function(caster, opponent, move)
	caster.evading = move == "attack"
	return caster.name .. " dodged"
end)`,
	})))
	abilities := rpg.DefaultAbilities()
	require.NoError(t, mgr.RegisterAbilities(abilities))
	eng := rpg.NewEngine(abilities)

	rogue := rpg.NewEntity(rpg.RoleHero, "Rogue", 2, 4, 5)
	rogue.Special = "dodge"
	rogue.Charged = true
	orc := rpg.NewEntity(rpg.RoleEnemy, "Orc", 3, 6, 4)

	turn, err := eng.ResolveTurn(rogue, rpg.Special, orc, rpg.Attack)
	require.NoError(t, err)
	assert.Equal(t, 4, rogue.Health)
	assert.Equal(t, 0, turn.Second.Damage)
	assert.False(t, rogue.Evading)
}

func TestManager_ScriptedAbilityResultIsClamped(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(writeTempLua(t, map[string]string{"punch.lua": punchScript})))
	abilities := rpg.NewAbilities()
	require.NoError(t, mgr.RegisterAbilities(abilities))

	viking := rpg.NewEntity(rpg.RoleHero, "Viking", 9, 6, 4)
	viking.Special = "punch"
	viking.Charged = true
	rat := rpg.NewEntity(rpg.RoleEnemy, "Rat", 1, 2, 2)

	_, err := rpg.NewEngine(abilities).UseSpecial(viking, rat, rpg.Attack)
	require.NoError(t, err)
	assert.Equal(t, 0, rat.Health)
}

func TestManager_RuntimeErrorFizzles(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	require.NoError(t, mgr.Load(writeTempLua(t, map[string]string{
		"broken.lua": `rpg.register_special("broken", function(c, o) error("boom") end)`,
	})))
	abilities := rpg.NewAbilities()
	require.NoError(t, mgr.RegisterAbilities(abilities))

	caster := rpg.NewEntity(rpg.RoleBoss, "Lich", 1, 5, 5)
	caster.Special = "broken"
	caster.Charged = true
	op := rpg.NewEntity(rpg.RoleHero, "Knight", 2, 4, 4)

	text, err := rpg.NewEngine(abilities).UseSpecial(caster, op, rpg.Rest)
	require.NoError(t, err)
	assert.Equal(t, "Lich's special fizzled", text)
	assert.Equal(t, 4, op.Health)
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestManager_InstructionBudgetIsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t, 500)
	require.NoError(t, mgr.Load(writeTempLua(t, map[string]string{
		"loop.lua": `
rpg.register_special("count", function(c, o)
	local n = 0
	for i = 1, 20 do n = n + i end
	return "counted " .. n
end)
rpg.register_special("spin", function() while true do end end)
`,
	})))
	abilities := rpg.NewAbilities()
	require.NoError(t, mgr.RegisterAbilities(abilities))
	ability, ok := abilities.Lookup("count")
	require.True(t, ok)

	a := rpg.NewEntity(rpg.RoleHero, "A", 1, 5, 5)
	b := rpg.NewEntity(rpg.RoleEnemy, "B", 1, 5, 5)
	for i := 0; i < 20; i++ {
		text, err := ability.Use(a, b, rpg.Rest)
		require.NoError(t, err)
		require.Equal(t, "counted 210", text, "call %d", i)
	}

	spin, _ := abilities.Lookup("spin")
	text, err := spin.Use(a, b, rpg.Rest)
	require.NoError(t, err)
	assert.Equal(t, "A's special fizzled", text)

	text, err = ability.Use(a, b, rpg.Rest)
	require.NoError(t, err)
	assert.Equal(t, "counted 210", text, "VM usable after a runaway script")
}

func TestManager_LoadErrors(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	assert.Error(t, mgr.Load(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, mgr.Load(writeTempLua(t, map[string]string{"bad.lua": `this is not lua`})))
	assert.Error(t, mgr.Load(writeTempLua(t, map[string]string{
		"dup.lua": `
rpg.register_special("x", function() end)
rpg.register_special("x", function() end)
`,
	})))
	assert.Empty(t, mgr.Specials())
}

func TestManager_RegisterAbilitiesRejectsBuiltinOverride(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(writeTempLua(t, map[string]string{
		"bleed.lua": `rpg.register_special("bleed", function() return "" end)`,
	})))
	assert.Error(t, mgr.RegisterAbilities(rpg.DefaultAbilities()))
}

func TestManager_ConcurrentUse(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(writeTempLua(t, map[string]string{"punch.lua": punchScript})))
	abilities := rpg.NewAbilities()
	require.NoError(t, mgr.RegisterAbilities(abilities))
	punch, _ := abilities.Lookup("punch")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := rpg.NewEntity(rpg.RoleHero, "Viking", 1, 5, 5)
			b := rpg.NewEntity(rpg.RoleEnemy, "Goblin", 1, 5, 5)
			_, err := punch.Use(a, b, rpg.Attack)
			assert.NoError(t, err)
			assert.Equal(t, 3, b.Health)
		}()
	}
	wg.Wait()
}
