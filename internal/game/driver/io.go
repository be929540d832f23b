package driver

import (
	"context"
	"errors"

	"github.com/culturebot/rpg/internal/game/rpg"
)

// Input sentinels. Either one ends the game gracefully.
var (
	// ErrTimedOut is returned by an Input when the player did not answer in time.
	ErrTimedOut = errors.New("driver: timed out waiting for the player")
	// ErrCancelled is returned by an Input when the player asked to quit.
	ErrCancelled = errors.New("driver: cancelled by the player")
)

// HeroChoice is one entry of the hero selection menu.
type HeroChoice struct {
	Template *rpg.Template
	// Available is false when the hero's special has no registered ability.
	Available bool
}

// DifficultyChoice is one entry of the difficulty menu.
type DifficultyChoice struct {
	Difficulty rpg.Difficulty
	// Available is false when no strategy is registered for the tier.
	Available bool
}

// Input supplies the player's decisions. Implementations block until the
// player answers, ctx is done, or the player gives up.
//
// Every method returns ErrTimedOut or ErrCancelled (possibly wrapped) when
// the player does not provide an answer.
type Input interface {
	// ChooseHero returns the name of the chosen hero template.
	ChooseHero(ctx context.Context, choices []HeroChoice) (string, error)
	// ChooseDifficulty returns the chosen tier.
	ChooseDifficulty(ctx context.Context, choices []DifficultyChoice) (rpg.Difficulty, error)
	// RequestMove returns the hero's move for this turn.
	//
	// Postcondition: On success the move is one of possible.
	RequestMove(ctx context.Context, hero *rpg.Hero, opponent *rpg.Entity, possible []rpg.Move) (rpg.Move, error)
}

// Output presents the game to the player.
type Output interface {
	// Render shows the hero and opponent tables followed by narration lines.
	// opponent may be nil between encounters.
	Render(hero *rpg.Hero, opponent *rpg.Entity, narration []string) error
	// Announce shows a status line.
	Announce(text string) error
}
