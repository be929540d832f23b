package rpg

import (
	"fmt"
	"sort"
	"sync"
)

// Ability is the effect of one special ability kind.
//
// Use mutates caster and opponent in place and returns a short narration
// fragment. Implementations need not clamp; the engine clamps afterwards.
type Ability interface {
	Use(caster, opponent *Entity, opponentMove Move) (string, error)
}

// AbilityFunc adapts a plain function to the Ability interface.
type AbilityFunc func(caster, opponent *Entity, opponentMove Move) (string, error)

// Use calls f.
func (f AbilityFunc) Use(caster, opponent *Entity, opponentMove Move) (string, error) {
	return f(caster, opponent, opponentMove)
}

// Abilities maps ability kinds to their effects.
// All methods are safe for concurrent use.
//
// Invariant: each kind is registered at most once.
type Abilities struct {
	mu    sync.RWMutex
	table map[string]Ability
}

// NewAbilities returns an empty table.
func NewAbilities() *Abilities {
	return &Abilities{table: make(map[string]Ability)}
}

// DefaultAbilities returns a table holding the built-in abilities.
//
// Postcondition: "bleed" is registered.
func DefaultAbilities() *Abilities {
	a := NewAbilities()
	_ = a.Register("bleed", AbilityFunc(bleed))
	return a
}

// Register adds ability under kind.
//
// Precondition: kind must be non-empty; ability must be non-nil.
// Postcondition: Returns an error if kind is already registered.
func (a *Abilities) Register(kind string, ability Ability) error {
	if kind == "" {
		return fmt.Errorf("rpg.Abilities: kind must not be empty")
	}
	if ability == nil {
		return fmt.Errorf("rpg.Abilities: ability %q must not be nil", kind)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.table[kind]; exists {
		return fmt.Errorf("rpg.Abilities: ability %q already registered", kind)
	}
	a.table[kind] = ability
	return nil
}

// Lookup returns the ability registered for kind.
func (a *Abilities) Lookup(kind string) (Ability, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ab, ok := a.table[kind]
	return ab, ok
}

// Implemented reports whether kind has a registered ability. The empty kind
// (no special) is always implemented.
func (a *Abilities) Implemented(kind string) bool {
	if kind == "" {
		return true
	}
	_, ok := a.Lookup(kind)
	return ok
}

// Kinds returns the registered kinds in sorted order.
func (a *Abilities) Kinds() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	kinds := make([]string, 0, len(a.table))
	for k := range a.table {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// bleed drains up to SpecialLevel stamina from the opponent and heals the
// caster by one less than the amount drained.
func bleed(caster, opponent *Entity, _ Move) (string, error) {
	drained := caster.SpecialLevel
	if opponent.Stamina < drained {
		drained = opponent.Stamina
	}
	if drained < 0 {
		drained = 0
	}
	opponent.Stamina -= drained
	if heal := drained - 1; heal > 0 {
		caster.Health += heal
	}
	if drained == 0 {
		return fmt.Sprintf("%s found no stamina to drain from %s", caster, opponent), nil
	}
	return fmt.Sprintf("%s drained %d stamina from %s", caster, drained, opponent), nil
}
