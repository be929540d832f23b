package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/culturebot/rpg/internal/game/rpg"
)

// Manager owns one sandboxed VM holding every loaded special-ability script.
//
// A LState is single-threaded, so every call into the VM holds mu. Abilities
// are short, and sessions only enter the VM when a scripted special fires.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	specials  map[string]*lua.LFunction
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 uses the default).
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	return &Manager{
		specials:  make(map[string]*lua.LFunction),
		instLimit: instLimit,
		logger:    logger,
	}
}

// Load creates a fresh VM, then executes every *.lua file in scriptDir in
// lexicographic order. Scripts register abilities with rpg.register_special.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: On success the previous VM, if any, is closed and replaced.
// On error the previous VM stays in place.
func (m *Manager) Load(scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState(m.instLimit)
	pending := make(map[string]*lua.LFunction)
	m.registerModules(L, pending)
	for _, path := range luaFiles {
		cancel := resetBudget(L, m.instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.L
	m.L = L
	m.specials = pending
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
		zap.Strings("specials", m.Specials()),
	)
	return nil
}

// Specials returns the scripted ability kinds in sorted order.
func (m *Manager) Specials() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.specials))
	for k := range m.specials {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// RegisterAbilities adds every scripted special to abilities.
//
// Postcondition: Returns the first registration error, e.g. a script
// redefining a built-in ability.
func (m *Manager) RegisterAbilities(abilities *rpg.Abilities) error {
	for _, kind := range m.Specials() {
		if err := abilities.Register(kind, &scriptedAbility{m: m, kind: kind}); err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
	}
	return nil
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}

// scriptedAbility is an rpg.Ability backed by a Lua function.
type scriptedAbility struct {
	m    *Manager
	kind string
}

// Use calls the Lua function with caster and opponent tables and the
// opponent's move name, then copies health, stamina and evading back. Lua
// runtime errors are logged at Warn level; the special then fizzles without
// effect.
func (a *scriptedAbility) Use(caster, opponent *rpg.Entity, opponentMove rpg.Move) (string, error) {
	text, err := a.m.call(a.kind, caster, opponent, opponentMove)
	if err != nil {
		a.m.logger.Warn("scripting: Lua runtime error",
			zap.String("special", a.kind),
			zap.String("caster", caster.Name),
			zap.Error(err),
		)
		return fmt.Sprintf("%s's special fizzled", caster), nil
	}
	return text, nil
}

func (m *Manager) call(kind string, caster, opponent *rpg.Entity, opponentMove rpg.Move) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn, ok := m.specials[kind]
	if !ok || m.L == nil {
		return "", fmt.Errorf("special %q is not loaded", kind)
	}
	L := m.L
	cancel := resetBudget(L, m.instLimit)
	defer cancel()

	casterTbl := entityTable(L, caster)
	opponentTbl := entityTable(L, opponent)
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, casterTbl, opponentTbl, lua.LString(opponentMove.String())); err != nil {
		return "", err
	}
	ret := L.Get(-1)
	L.Pop(1)

	readBack(casterTbl, caster)
	readBack(opponentTbl, opponent)
	if s, ok := ret.(lua.LString); ok {
		return string(s), nil
	}
	return fmt.Sprintf("%s used %s", caster, kind), nil
}

// entityTable snapshots e into a Lua table.
func entityTable(L *lua.LState, e *rpg.Entity) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(e.Name))
	L.SetField(t, "role", lua.LString(e.Role.String()))
	L.SetField(t, "strength", lua.LNumber(e.Strength))
	L.SetField(t, "health", lua.LNumber(e.Health))
	L.SetField(t, "max_health", lua.LNumber(e.MaxHealth))
	L.SetField(t, "stamina", lua.LNumber(e.Stamina))
	L.SetField(t, "max_stamina", lua.LNumber(e.MaxStamina))
	L.SetField(t, "special_level", lua.LNumber(e.SpecialLevel))
	L.SetField(t, "last_move", lua.LString(e.LastMove().String()))
	L.SetField(t, "evading", lua.LBool(e.Evading))
	return t
}

// readBack copies the writable fields of t into e: health, stamina and
// evading. Values of the wrong type are ignored; the engine clamps the
// result.
func readBack(t *lua.LTable, e *rpg.Entity) {
	if b, ok := t.RawGetString("evading").(lua.LBool); ok {
		e.Evading = bool(b)
	}
	if n, ok := t.RawGetString("health").(lua.LNumber); ok {
		e.Health = int(n)
	}
	if n, ok := t.RawGetString("stamina").(lua.LNumber); ok {
		e.Stamina = int(n)
	}
}

func moveNames() []string {
	names := make([]string, 0, len(rpg.AllMoves))
	for _, mv := range rpg.AllMoves {
		names = append(names, mv.String())
	}
	return names
}
