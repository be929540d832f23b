package driver

import (
	"context"
	"time"

	"github.com/culturebot/rpg/internal/game/rpg"
)

// Outcome is how a game session ended.
type Outcome string

const (
	// OutcomeDefeated means the hero fell in battle.
	OutcomeDefeated Outcome = "defeated"
	// OutcomeTimedOut means the player stopped answering.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeCancelled means the player quit.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeAborted means the session failed or its context ended.
	OutcomeAborted Outcome = "aborted"
)

// Result summarises one finished game session.
type Result struct {
	SessionID       string
	Player          string
	Hero            string
	Difficulty      rpg.Difficulty
	Defeated        int
	BossesRemaining int
	Outcome         Outcome
	StartedAt       time.Time
	EndedAt         time.Time
}

// Recorder persists finished sessions.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}
