package rpg

import "fmt"

// Role distinguishes the three kinds of combat participant.
type Role int

const (
	RoleHero Role = iota
	RoleEnemy
	RoleBoss
)

// String returns the lower-case role name.
func (r Role) String() string {
	switch r {
	case RoleHero:
		return "hero"
	case RoleEnemy:
		return "enemy"
	case RoleBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// Entity is one combat participant. Heroes, enemies and bosses share this
// record; Role selects the behaviour that differs between them.
//
// Invariant: 0 <= Health <= MaxHealth and 0 <= Stamina <= MaxStamina after
// every resolution call.
type Entity struct {
	Role Role
	Name string

	Strength   int
	MaxHealth  int
	MaxStamina int

	Health  int
	Stamina int

	// MoveHistory is append-only during a fight and cleared between fights.
	MoveHistory []Move

	// Special names the ability kind; empty means the entity has none.
	Special      string
	SpecialLevel int
	// Charged is set by Charge and cleared when Special resolves.
	Charged bool
	// Evading is set by an ability during the special phase and makes the
	// opponent's attack this turn miss. It never outlives the turn.
	Evading bool

	// Level is shown in the stats table only.
	Level int
}

// NewEntity creates an entity at full health and stamina.
//
// Precondition: strength, health and stamina must be >= 0.
// Postcondition: Health == MaxHealth, Stamina == MaxStamina, MoveHistory is
// empty and SpecialLevel >= 1.
func NewEntity(role Role, name string, strength, health, stamina int) *Entity {
	return &Entity{
		Role:         role,
		Name:         name,
		Strength:     strength,
		MaxHealth:    health,
		MaxStamina:   stamina,
		Health:       health,
		Stamina:      stamina,
		MoveHistory:  []Move{},
		SpecialLevel: 1,
	}
}

// String returns the entity name, as used in narration.
func (e *Entity) String() string { return e.Name }

// IsDefeated reports whether the entity has no health left.
func (e *Entity) IsDefeated() bool { return e.Health <= 0 }

// LastMove returns the most recent move, or MoveUnknown before the first turn.
func (e *Entity) LastMove() Move {
	if len(e.MoveHistory) == 0 {
		return MoveUnknown
	}
	return e.MoveHistory[len(e.MoveHistory)-1]
}

// Clone returns a deep copy of e.
func (e *Entity) Clone() *Entity {
	cp := *e
	cp.MoveHistory = append([]Move{}, e.MoveHistory...)
	return &cp
}

// PossibleMoves returns the moves e may legally choose this turn, in menu
// order: Attack, Defend, Rest, then Charge or Special.
//
// Postcondition: Attack is present only when Stamina >= 2 and Defend only
// when Stamina >= 1. A move equal to both of the last two history entries is
// excluded unless that would leave nothing, in which case Rest remains.
// The result is never empty.
func (e *Entity) PossibleMoves() []Move {
	moves := make([]Move, 0, 4)
	if e.Stamina >= 2 {
		moves = append(moves, Attack)
	}
	if e.Stamina >= 1 {
		moves = append(moves, Defend)
	}
	moves = append(moves, Rest)
	if e.Special != "" {
		if e.Charged {
			moves = append(moves, Special)
		} else {
			moves = append(moves, Charge)
		}
	}

	n := len(e.MoveHistory)
	if n >= 2 && e.MoveHistory[n-1] == e.MoveHistory[n-2] {
		repeated := e.MoveHistory[n-1]
		filtered := moves[:0]
		for _, m := range moves {
			if m != repeated {
				filtered = append(filtered, m)
			}
		}
		moves = filtered
		if len(moves) == 0 {
			moves = append(moves, Rest)
		}
	}
	return moves
}

// CanMove reports whether m is currently legal for e.
func (e *Entity) CanMove(m Move) bool {
	return containsMove(e.PossibleMoves(), m)
}

// Heal raises Health by amount, capped at MaxHealth.
//
// Precondition: amount >= 0.
func (e *Entity) Heal(amount int) {
	e.Health += amount
	e.clamp()
}

// ApplyDamage lowers Health by amount, flooring at zero.
//
// Precondition: amount >= 0.
func (e *Entity) ApplyDamage(amount int) {
	e.Health -= amount
	e.clamp()
}

// RestoreStamina sets Stamina back to MaxStamina.
func (e *Entity) RestoreStamina() { e.Stamina = e.MaxStamina }

// ResetForEncounter clears per-fight bookkeeping.
func (e *Entity) ResetForEncounter() {
	e.MoveHistory = e.MoveHistory[:0]
}

func (e *Entity) clamp() {
	e.Health = clampInt(e.Health, 0, e.MaxHealth)
	e.Stamina = clampInt(e.Stamina, 0, e.MaxStamina)
}

// Validate checks the static invariants of a freshly built entity.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%s: name must not be empty", e.Role)
	}
	if e.Strength < 0 || e.MaxHealth < 1 || e.MaxStamina < 0 {
		return fmt.Errorf("%s %q: strength and stamina must be >= 0 and health >= 1", e.Role, e.Name)
	}
	if e.Role == RoleBoss && e.Special == "" {
		return fmt.Errorf("boss %q: special must not be empty", e.Name)
	}
	if e.SpecialLevel < 1 {
		return fmt.Errorf("%s %q: special_level must be >= 1", e.Role, e.Name)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
