package rpg

import "fmt"

// Outcome describes what one side's move did this turn.
type Outcome struct {
	// Narration is the turn summary from the acting entity's perspective.
	Narration string
	// SpecialNarration is the ability fragment; empty unless Special resolved.
	SpecialNarration string
	// Damage is the health the move removed from the opponent.
	Damage int
}

// Turn holds both sides' outcomes for one resolved turn.
type Turn struct {
	First  Outcome
	Second Outcome
}

// Lines returns the narration lines of t in display order.
func (t Turn) Lines() []string {
	var lines []string
	for _, o := range []Outcome{t.First, t.Second} {
		lines = append(lines, o.Narration)
		if o.SpecialNarration != "" {
			lines = append(lines, o.SpecialNarration)
		}
	}
	return lines
}

// Engine resolves moves against an ability table.
// An Engine holds no per-fight state and is safe to share between sessions.
type Engine struct {
	abilities *Abilities
}

// NewEngine creates an Engine.
//
// Precondition: abilities must be non-nil.
func NewEngine(abilities *Abilities) *Engine {
	if abilities == nil {
		panic("rpg.NewEngine: abilities must not be nil")
	}
	return &Engine{abilities: abilities}
}

// Abilities returns the engine's ability table.
func (g *Engine) Abilities() *Abilities { return g.abilities }

// UseSpecial discharges self's special ability against opponent.
//
// Precondition: self.Charged and self.Special != "".
// Postcondition: On success Charged is false and both entities are clamped.
// Returns ErrSpecialNotCharged, ErrNoSpecialAbility or
// ErrSpecialNotImplemented when the precondition cannot be met.
func (g *Engine) UseSpecial(self, opponent *Entity, opponentMove Move) (string, error) {
	if self.Special == "" {
		return "", fmt.Errorf("%s: %w", self, ErrNoSpecialAbility)
	}
	if !self.Charged {
		return "", fmt.Errorf("%s: %w", self, ErrSpecialNotCharged)
	}
	ability, ok := g.abilities.Lookup(self.Special)
	if !ok {
		return "", fmt.Errorf("%s special %q: %w", self, self.Special, ErrSpecialNotImplemented)
	}
	text, err := ability.Use(self, opponent, opponentMove)
	if err != nil {
		return "", fmt.Errorf("%s special %q: %w", self, self.Special, err)
	}
	self.Charged = false
	self.clamp()
	opponent.clamp()
	return text, nil
}

// DetermineMove resolves one side of a turn: self plays move while opponent
// plays opponentMove.
//
// Precondition: move must be in self.PossibleMoves().
// Postcondition: move is appended to self.MoveHistory; both entities satisfy
// their health and stamina bounds. Returns an *InvalidMoveError without
// mutating anything when move is illegal.
func (g *Engine) DetermineMove(self *Entity, move Move, opponent *Entity, opponentMove Move) (Outcome, error) {
	if err := g.checkLegal(self, move); err != nil {
		return Outcome{}, err
	}
	defer endTurn(self, opponent)
	applySelf(self, move)
	return g.applyCross(self, move, opponent, opponentMove)
}

// ResolveTurn resolves a full simultaneous turn. Both moves are validated
// before anything changes. Effects then land in phases: every self effect
// (stamina, history, charge), then both specials, then both attacks, so the
// result does not depend on which entity is passed first. A special that
// sets Evading makes the opponent's attack miss.
//
// Postcondition: On a validation error neither entity has been mutated.
func (g *Engine) ResolveTurn(a *Entity, moveA Move, b *Entity, moveB Move) (Turn, error) {
	if err := g.checkLegal(a, moveA); err != nil {
		return Turn{}, err
	}
	if err := g.checkLegal(b, moveB); err != nil {
		return Turn{}, err
	}
	defer endTurn(a, b)
	applySelf(a, moveA)
	applySelf(b, moveB)

	var first, second Outcome
	if err := g.applySpecial(a, moveA, b, moveB, &first); err != nil {
		return Turn{}, err
	}
	if err := g.applySpecial(b, moveB, a, moveA, &second); err != nil {
		return Turn{}, err
	}
	applyAttack(a, moveA, b, moveB, &first)
	applyAttack(b, moveB, a, moveA, &second)

	first.Narration = Narrate(a, moveA, b, moveB)
	second.Narration = Narrate(b, moveB, a, moveA)
	return Turn{First: first, Second: second}, nil
}

// checkLegal rejects moves outside PossibleMoves and specials the ability
// table cannot resolve.
func (g *Engine) checkLegal(self *Entity, move Move) error {
	legal := self.PossibleMoves()
	if !containsMove(legal, move) {
		return &InvalidMoveError{Entity: self.Name, Move: move, Legal: legal}
	}
	if move == Special && !g.abilities.Implemented(self.Special) {
		return fmt.Errorf("%s special %q: %w", self, self.Special, ErrSpecialNotImplemented)
	}
	return nil
}

// applySelf applies the costs and effects that touch only the acting entity.
func applySelf(self *Entity, move Move) {
	self.MoveHistory = append(self.MoveHistory, move)
	switch move {
	case Attack:
		self.Stamina -= 2
	case Defend:
		self.Stamina--
	case Rest:
		self.RestoreStamina()
	case Charge:
		self.Charged = true
	}
	self.clamp()
}

// applyCross applies the effects of self's move on opponent and narrates.
func (g *Engine) applyCross(self *Entity, move Move, opponent *Entity, opponentMove Move) (Outcome, error) {
	var out Outcome
	if err := g.applySpecial(self, move, opponent, opponentMove, &out); err != nil {
		return Outcome{}, err
	}
	applyAttack(self, move, opponent, opponentMove, &out)
	out.Narration = Narrate(self, move, opponent, opponentMove)
	return out, nil
}

func (g *Engine) applySpecial(self *Entity, move Move, opponent *Entity, opponentMove Move, out *Outcome) error {
	if move != Special {
		return nil
	}
	text, err := g.UseSpecial(self, opponent, opponentMove)
	if err != nil {
		return err
	}
	out.SpecialNarration = text
	return nil
}

// applyAttack deals no damage against Defend or an evading opponent, half
// strength against Attack and full strength otherwise. out.Damage records
// the actual health lost.
func applyAttack(self *Entity, move Move, opponent *Entity, opponentMove Move, out *Outcome) {
	if move != Attack {
		return
	}
	dmg := self.Strength
	switch {
	case opponentMove == Defend, opponent.Evading:
		dmg = 0
	case opponentMove == Attack:
		dmg = self.Strength / 2
	}
	before := opponent.Health
	opponent.ApplyDamage(dmg)
	out.Damage = before - opponent.Health
}

// endTurn drops the flags that only last for the turn being resolved.
func endTurn(entities ...*Entity) {
	for _, e := range entities {
		e.Evading = false
	}
}

// Narrate returns the turn summary for self playing move against opponent
// playing opponentMove.
func Narrate(self *Entity, move Move, opponent *Entity, opponentMove Move) string {
	switch {
	case move == opponentMove:
		return fmt.Sprintf("Both %s and %s have %s", self, opponent, move.PastTense())
	case move == Attack && opponentMove == Defend:
		return fmt.Sprintf("%s has defended %s's attack", opponent, self)
	case move == Defend && opponentMove == Attack:
		return fmt.Sprintf("%s has defended %s's attack", self, opponent)
	default:
		return fmt.Sprintf("%s has %s while %s was %s",
			self, move.PastTense(), opponent, opponentMove.PresentParticiple(opponent.Special))
	}
}
