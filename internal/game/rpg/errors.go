package rpg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMove is matched by every *InvalidMoveError.
	ErrInvalidMove = errors.New("invalid move")
	// ErrSpecialNotCharged is returned when a special is used before charging.
	ErrSpecialNotCharged = errors.New("special move is not charged")
	// ErrNoSpecialAbility is returned when an entity without a special uses one.
	ErrNoSpecialAbility = errors.New("entity does not have a special move")
	// ErrSpecialNotImplemented is returned for ability kinds with no registered effect.
	ErrSpecialNotImplemented = errors.New("special ability not implemented")
	// ErrDifficultyNotImplemented is returned for difficulty tiers with no strategy.
	ErrDifficultyNotImplemented = errors.New("difficulty not implemented")
)

// InvalidMoveError reports a move that was not legal for the entity at
// resolution time.
type InvalidMoveError struct {
	Entity string
	Move   Move
	Legal  []Move
}

func (e *InvalidMoveError) Error() string {
	names := make([]string, len(e.Legal))
	for i, m := range e.Legal {
		names[i] = m.String()
	}
	return fmt.Sprintf("invalid move %s for %s (legal: %s)", e.Move, e.Entity, strings.Join(names, ", "))
}

// Is lets errors.Is(err, ErrInvalidMove) match.
func (e *InvalidMoveError) Is(target error) bool { return target == ErrInvalidMove }
