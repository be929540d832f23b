// Package rpg implements the turn-based combat rules of the culturebot RPG:
// entities, move legality, move resolution and enemy strategies.
package rpg

import (
	"fmt"
	"strings"
)

// Move identifies what a combatant does on a turn.
// The zero value (MoveUnknown) is intentionally invalid.
type Move int

const (
	MoveUnknown Move = iota // zero value; intentionally invalid
	Attack                  // costs 2 stamina
	Defend                  // costs 1 stamina
	Rest                    // restores stamina to max
	Charge                  // arms the special ability
	Special                 // discharges the special ability
)

// AllMoves lists every valid Move in menu order.
var AllMoves = []Move{Attack, Defend, Rest, Charge, Special}

// String returns the lower-case move name.
func (m Move) String() string {
	switch m {
	case Attack:
		return "attack"
	case Defend:
		return "defend"
	case Rest:
		return "rest"
	case Charge:
		return "charge"
	case Special:
		return "special"
	default:
		return "unknown"
	}
}

// Emoji returns the glyph shown next to m in move menus.
func (m Move) Emoji() string {
	switch m {
	case Attack:
		return "⚔️"
	case Defend:
		return "🛡️"
	case Rest:
		return "🔋"
	case Charge:
		return "⚡"
	case Special:
		return "✨"
	default:
		return "?"
	}
}

// PastTense returns the narration verb for an entity that made move m.
func (m Move) PastTense() string {
	switch m {
	case Attack:
		return "attacked"
	case Defend:
		return "defended"
	case Rest:
		return "rested"
	case Charge:
		return "charged"
	case Special:
		return "used their special"
	default:
		return "did nothing"
	}
}

// PresentParticiple returns the narration phrase for an opponent making
// move m. special names the opponent's ability for the Special form.
func (m Move) PresentParticiple(special string) string {
	switch m {
	case Attack:
		return "attacking"
	case Defend:
		return "defending"
	case Rest:
		return "resting"
	case Charge:
		return "charging"
	case Special:
		return fmt.Sprintf("using their special %q", special)
	default:
		return "idle"
	}
}

// ParseMove resolves player input to a Move. It accepts the move name, its
// first letter, or its emoji (with or without the variation selector).
//
// Postcondition: Returns (move, true) on a match, or (MoveUnknown, false).
func ParseMove(input string) (Move, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return MoveUnknown, false
	}
	for _, m := range AllMoves {
		if s == m.String() || s == m.String()[:1] {
			return m, true
		}
		emoji := m.Emoji()
		if s == emoji || s == strings.TrimSuffix(emoji, "\ufe0f") {
			return m, true
		}
	}
	return MoveUnknown, false
}

func containsMove(moves []Move, m Move) bool {
	for _, x := range moves {
		if x == m {
			return true
		}
	}
	return false
}
