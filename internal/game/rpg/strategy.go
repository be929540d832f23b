package rpg

import (
	"fmt"
	"strings"
	"sync"
)

// Source is the subset of dice.Source used by strategies and opponent
// selection. Using a local interface keeps this package free of dice.
type Source interface {
	Intn(n int) int
}

// Difficulty is the enemy AI tier chosen at the start of a game.
type Difficulty int

const (
	DifficultyUnknown Difficulty = iota
	DifficultyEasy
	DifficultyNormal
	DifficultyHard
)

// Difficulties lists the selectable tiers in menu order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard}

// String returns the tier name.
func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyNormal:
		return "normal"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

// Blurb returns the one-line menu description of the tier.
func (d Difficulty) Blurb() string {
	switch d {
	case DifficultyEasy:
		return "enemies move basically at random, gets boring after a while."
	case DifficultyNormal:
		return "enemies use simple AI to attack, recommended for casual players."
	case DifficultyHard:
		return "super smart AI, hard to beat, a true challenge."
	default:
		return ""
	}
}

// ParseDifficulty accepts a tier name or its menu number.
func ParseDifficulty(s string) (Difficulty, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, d := range Difficulties {
		if s == d.String() || s == fmt.Sprint(i+1) {
			return d, true
		}
	}
	return DifficultyUnknown, false
}

// Strategy decides an enemy's move without player input.
type Strategy interface {
	DecideMove(self *Entity, hero *Hero, src Source) (Move, error)
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(self *Entity, hero *Hero, src Source) (Move, error)

// DecideMove calls f.
func (f StrategyFunc) DecideMove(self *Entity, hero *Hero, src Source) (Move, error) {
	return f(self, hero, src)
}

// EasyStrategy rests when exhausted and otherwise picks uniformly among the
// legal moves.
type EasyStrategy struct{}

// DecideMove implements Strategy.
//
// Postcondition: The returned move is in self.PossibleMoves().
func (EasyStrategy) DecideMove(self *Entity, _ *Hero, src Source) (Move, error) {
	if self.Stamina == 0 && self.CanMove(Rest) {
		return Rest, nil
	}
	moves := self.PossibleMoves()
	return moves[src.Intn(len(moves))], nil
}

// Strategies indexes enemy strategies by difficulty.
// All methods are safe for concurrent use.
type Strategies struct {
	mu sync.RWMutex
	m  map[Difficulty]Strategy
}

// NewStrategies returns a registry with only the easy tier implemented.
// Normal and hard stay unimplemented until a strategy is registered.
func NewStrategies() *Strategies {
	return &Strategies{m: map[Difficulty]Strategy{DifficultyEasy: EasyStrategy{}}}
}

// Register installs s for d.
//
// Postcondition: Returns an error when d already has a strategy.
func (s *Strategies) Register(d Difficulty, strategy Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.m[d]; exists {
		return fmt.Errorf("rpg.Strategies: difficulty %s already registered", d)
	}
	s.m[d] = strategy
	return nil
}

// For returns the strategy for d, or an error wrapping
// ErrDifficultyNotImplemented.
func (s *Strategies) For(d Difficulty) (Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	strategy, ok := s.m[d]
	if !ok {
		return nil, fmt.Errorf("difficulty %s: %w", d, ErrDifficultyNotImplemented)
	}
	return strategy, nil
}

// Implemented reports whether d has a strategy.
func (s *Strategies) Implemented(d Difficulty) bool {
	_, err := s.For(d)
	return err == nil
}
