package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/culturebot/rpg/internal/game/driver"
	"github.com/culturebot/rpg/internal/game/rpg"
)

// ErrRunExists is returned when a session is recorded twice.
var ErrRunExists = errors.New("run already recorded")

// RunRepository persists finished game sessions. It implements
// driver.Recorder and the lobby's scoreboard.
type RunRepository struct {
	db *pgxpool.Pool
}

// NewRunRepository creates a RunRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts res.
//
// Precondition: res.SessionID must be non-empty.
// Postcondition: Returns ErrRunExists if the session was already recorded.
func (r *RunRepository) Record(ctx context.Context, res driver.Result) error {
	if res.SessionID == "" {
		return errors.New("recording run: session id must not be empty")
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO runs (session_id, player, hero, difficulty, defeated,
		                  bosses_remaining, outcome, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.SessionID, res.Player, res.Hero, res.Difficulty.String(), res.Defeated,
		res.BossesRemaining, string(res.Outcome), res.StartedAt, res.EndedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrRunExists
		}
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Top returns up to n runs with the most enemies defeated. Ties go to the
// run that finished first.
//
// Precondition: n > 0.
func (r *RunRepository) Top(ctx context.Context, n int) ([]driver.Result, error) {
	return r.query(ctx, `
		SELECT session_id, player, hero, difficulty, defeated,
		       bosses_remaining, outcome, started_at, ended_at
		FROM runs ORDER BY defeated DESC, ended_at ASC LIMIT $1`, n)
}

// ByPlayer returns up to n of player's runs, newest first.
//
// Precondition: n > 0.
func (r *RunRepository) ByPlayer(ctx context.Context, player string, n int) ([]driver.Result, error) {
	return r.query(ctx, `
		SELECT session_id, player, hero, difficulty, defeated,
		       bosses_remaining, outcome, started_at, ended_at
		FROM runs WHERE player = $1 ORDER BY ended_at DESC LIMIT $2`, player, n)
}

func (r *RunRepository) query(ctx context.Context, sql string, args ...any) ([]driver.Result, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]driver.Result, 0)
	for rows.Next() {
		var (
			res        driver.Result
			difficulty string
			outcome    string
		)
		if err := rows.Scan(
			&res.SessionID, &res.Player, &res.Hero, &difficulty, &res.Defeated,
			&res.BossesRemaining, &outcome, &res.StartedAt, &res.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		res.Difficulty, _ = rpg.ParseDifficulty(difficulty)
		res.Outcome = driver.Outcome(outcome)
		runs = append(runs, res)
	}
	return runs, rows.Err()
}

func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
