// Package driver runs one game session: hero and difficulty selection, then
// encounters until the hero falls or the player leaves.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/culturebot/rpg/internal/game/rpg"
)

// Session states.
const (
	StateSelectingHero       = "selecting_hero"
	StateSelectingDifficulty = "selecting_difficulty"
	StateInEncounter         = "in_encounter"
	StateEncounterWon        = "encounter_won"
	StateHeroDefeated        = "hero_defeated"
	StateGameOver            = "game_over"
)

// Transition events.
const (
	eventHeroChosen       = "hero_chosen"
	eventDifficultyChosen = "difficulty_chosen"
	eventWin              = "win"
	eventNext             = "next"
	eventLose             = "lose"
	eventFinish           = "finish"
	eventAbort            = "abort"
)

// Config holds the collaborators shared by every game on a server.
type Config struct {
	Roster     *rpg.Roster
	Engine     *rpg.Engine
	Strategies *rpg.Strategies
	Source     rpg.Source
	Logger     *zap.Logger
	// Recorder is optional; when set every finished game with a chosen hero
	// is recorded.
	Recorder Recorder
	// MoveTimeout bounds each player prompt. Zero means no limit beyond ctx.
	MoveTimeout time.Duration
	// OnStateChange is optional and called with the session id and the new
	// state after every transition.
	OnStateChange func(id, state string)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Validate checks that every required collaborator is present and that no
// enemy or boss references an unregistered special.
func (c Config) Validate() error {
	switch {
	case c.Roster == nil:
		return errors.New("driver: roster must not be nil")
	case c.Engine == nil:
		return errors.New("driver: engine must not be nil")
	case c.Strategies == nil:
		return errors.New("driver: strategies must not be nil")
	case c.Source == nil:
		return errors.New("driver: source must not be nil")
	case c.Logger == nil:
		return errors.New("driver: logger must not be nil")
	}
	abilities := c.Engine.Abilities()
	for _, list := range [][]*rpg.Template{c.Roster.Enemies, c.Roster.Bosses} {
		for _, t := range list {
			if !abilities.Implemented(t.Special) {
				return fmt.Errorf("driver: %q special %q: %w", t.Name, t.Special, rpg.ErrSpecialNotImplemented)
			}
		}
	}
	return nil
}

// Game is one player's session. A Game is driven by a single goroutine.
type Game struct {
	cfg      Config
	id       string
	player   string
	machine  *fsm.FSM
	hero     *rpg.Hero
	opponent *rpg.Entity
	diff     rpg.Difficulty
	strategy rpg.Strategy
	logger   *zap.Logger
}

// New creates a game in StateSelectingHero. An empty id is replaced by a
// fresh UUID.
//
// Precondition: cfg.Validate() returns nil.
// Postcondition: Returns a Game ready for Play, or the validation error.
func New(cfg Config, id, player string) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if id == "" {
		id = uuid.NewString()
	}
	g := &Game{
		cfg:    cfg,
		id:     id,
		player: player,
		logger: cfg.Logger.With(zap.String("session", id), zap.String("player", player)),
	}
	g.machine = fsm.NewFSM(
		StateSelectingHero,
		fsm.Events{
			{Name: eventHeroChosen, Src: []string{StateSelectingHero}, Dst: StateSelectingDifficulty},
			{Name: eventDifficultyChosen, Src: []string{StateSelectingDifficulty}, Dst: StateInEncounter},
			{Name: eventWin, Src: []string{StateInEncounter}, Dst: StateEncounterWon},
			{Name: eventNext, Src: []string{StateEncounterWon}, Dst: StateInEncounter},
			{Name: eventLose, Src: []string{StateInEncounter}, Dst: StateHeroDefeated},
			{Name: eventFinish, Src: []string{StateHeroDefeated}, Dst: StateGameOver},
			{Name: eventAbort, Src: []string{
				StateSelectingHero, StateSelectingDifficulty, StateInEncounter, StateEncounterWon, StateHeroDefeated,
			}, Dst: StateGameOver},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				g.logger.Debug("state change", zap.String("from", e.Src), zap.String("to", e.Dst))
				if g.cfg.OnStateChange != nil {
					g.cfg.OnStateChange(g.id, e.Dst)
				}
			},
		},
	)
	return g, nil
}

// ID returns the session id.
func (g *Game) ID() string { return g.id }

// State returns the current state name.
func (g *Game) State() string { return g.machine.Current() }

// Hero returns the hero, or nil before one is chosen.
func (g *Game) Hero() *rpg.Hero { return g.hero }

// Opponent returns the current opponent, or nil outside an encounter.
func (g *Game) Opponent() *rpg.Entity { return g.opponent }

// Play runs the session to StateGameOver.
//
// Precondition: Play is called at most once; in and out must be non-nil.
// Postcondition: State() == StateGameOver. A timeout or cancellation by the
// player yields a nil error; contract violations and ctx errors are returned.
func (g *Game) Play(ctx context.Context, in Input, out Output) (Result, error) {
	res := Result{SessionID: g.id, Player: g.player, StartedAt: g.cfg.Now()}
	g.logger.Info("game started")

	err := g.run(ctx, in, out)
	switch {
	case err == nil:
		res.Outcome = OutcomeDefeated
	case errors.Is(err, ErrTimedOut):
		res.Outcome = OutcomeTimedOut
		err = out.Announce("Time out! The game is over.")
	case errors.Is(err, ErrCancelled):
		res.Outcome = OutcomeCancelled
		err = out.Announce("Game cancelled.")
	default:
		res.Outcome = OutcomeAborted
	}
	if g.machine.Current() != StateGameOver {
		if ferr := g.machine.Event(context.Background(), eventAbort); ferr != nil && err == nil {
			err = fmt.Errorf("aborting game: %w", ferr)
		}
	}

	res.EndedAt = g.cfg.Now()
	res.Difficulty = g.diff
	if g.hero != nil {
		res.Hero = g.hero.Class
		res.Defeated = g.hero.Defeated
		res.BossesRemaining = len(g.hero.RemainingBosses)
		g.record(res)
	}
	g.logger.Info("game over",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("defeated", res.Defeated),
		zap.Error(err),
	)
	return res, err
}

func (g *Game) record(res Result) {
	if g.cfg.Recorder == nil {
		return
	}
	// The session ctx may already be done; the run is still worth keeping.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.cfg.Recorder.Record(ctx, res); err != nil {
		g.logger.Warn("recording run", zap.Error(err))
	}
}

func (g *Game) run(ctx context.Context, in Input, out Output) error {
	if err := out.Announce("Welcome to culturebot's rpg game! If this is your first time playing make sure to read the tutorial"); err != nil {
		return err
	}
	tmpl, err := g.chooseHero(ctx, in, out)
	if err != nil {
		return err
	}
	g.hero = rpg.NewHero(tmpl, g.cfg.Roster.Bosses)
	if err := g.event(ctx, eventHeroChosen); err != nil {
		return err
	}

	if err := g.chooseDifficulty(ctx, in, out); err != nil {
		return err
	}
	if err := out.Announce(fmt.Sprintf("Now playing as %s on %s", g.hero.Name, g.diff)); err != nil {
		return err
	}
	if err := g.event(ctx, eventDifficultyChosen); err != nil {
		return err
	}

	for {
		won, err := g.encounter(ctx, in, out)
		if err != nil {
			return err
		}
		if !won {
			if err := g.event(ctx, eventLose); err != nil {
				return err
			}
			if err := out.Announce(fmt.Sprintf("%s has been defeated after beating %d enemies.", g.hero.Name, g.hero.Defeated)); err != nil {
				return err
			}
			return g.event(ctx, eventFinish)
		}
		if err := g.event(ctx, eventWin); err != nil {
			return err
		}
		if err := g.event(ctx, eventNext); err != nil {
			return err
		}
	}
}

// promptContext bounds one player prompt by MoveTimeout.
func (g *Game) promptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.MoveTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.cfg.MoveTimeout)
}

// promptErr maps an expired prompt deadline to ErrTimedOut. Errors caused by
// the session ctx itself pass through unchanged.
func promptErr(ctx context.Context, err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return ErrTimedOut
	}
	return err
}

// chooseHero asks until the player picks an available hero.
func (g *Game) chooseHero(ctx context.Context, in Input, out Output) (*rpg.Template, error) {
	abilities := g.cfg.Engine.Abilities()
	choices := make([]HeroChoice, 0, len(g.cfg.Roster.Heroes))
	for _, t := range g.cfg.Roster.Heroes {
		choices = append(choices, HeroChoice{Template: t, Available: abilities.Implemented(t.Special)})
	}
	for {
		pctx, cancel := g.promptContext(ctx)
		name, err := in.ChooseHero(pctx, choices)
		cancel()
		if err != nil {
			return nil, promptErr(ctx, err)
		}
		if tmpl, ok := g.cfg.Roster.Hero(name); ok && abilities.Implemented(tmpl.Special) {
			return tmpl, nil
		}
		if err := out.Announce(fmt.Sprintf("%s is not available.", name)); err != nil {
			return nil, err
		}
	}
}

// chooseDifficulty asks until the player picks an implemented tier.
func (g *Game) chooseDifficulty(ctx context.Context, in Input, out Output) error {
	choices := make([]DifficultyChoice, 0, len(rpg.Difficulties))
	for _, d := range rpg.Difficulties {
		choices = append(choices, DifficultyChoice{Difficulty: d, Available: g.cfg.Strategies.Implemented(d)})
	}
	for {
		pctx, cancel := g.promptContext(ctx)
		d, err := in.ChooseDifficulty(pctx, choices)
		cancel()
		if err != nil {
			return promptErr(ctx, err)
		}
		strategy, err := g.cfg.Strategies.For(d)
		if err == nil {
			g.diff = d
			g.strategy = strategy
			return nil
		}
		if err := out.Announce(fmt.Sprintf("%s difficulty is not available yet.", d)); err != nil {
			return err
		}
	}
}

// encounter fights one opponent to the end and reports whether the hero won.
// A hero at zero health loses even when the opponent also fell.
func (g *Game) encounter(ctx context.Context, in Input, out Output) (bool, error) {
	g.opponent = g.hero.NextOpponent(g.cfg.Roster, g.cfg.Source)
	defer func() { g.opponent = nil }()
	opp := g.opponent

	intro := fmt.Sprintf("A wild %s appears!", opp.Name)
	if opp.Role == rpg.RoleBoss {
		intro = fmt.Sprintf("Boss fight! %s blocks the way.", opp.Name)
	}
	g.logger.Info("encounter started", zap.String("opponent", opp.Name), zap.Stringer("role", opp.Role))
	if err := out.Announce(intro); err != nil {
		return false, err
	}
	if err := out.Render(g.hero, opp, nil); err != nil {
		return false, err
	}

	for !g.hero.IsDefeated() && !opp.IsDefeated() {
		pctx, cancel := g.promptContext(ctx)
		move, err := in.RequestMove(pctx, g.hero, opp, g.hero.PossibleMoves())
		cancel()
		if err != nil {
			return false, promptErr(ctx, err)
		}
		oppMove, err := g.strategy.DecideMove(opp, g.hero, g.cfg.Source)
		if err != nil {
			return false, fmt.Errorf("deciding %s's move: %w", opp.Name, err)
		}
		turn, err := g.cfg.Engine.ResolveTurn(&g.hero.Entity, move, opp, oppMove)
		if err != nil {
			return false, fmt.Errorf("resolving turn: %w", err)
		}
		g.logger.Debug("turn resolved",
			zap.Stringer("hero_move", move),
			zap.Stringer("opponent_move", oppMove),
			zap.Int("hero_health", g.hero.Health),
			zap.Int("opponent_health", opp.Health),
		)
		if err := out.Render(g.hero, opp, turn.Lines()); err != nil {
			return false, err
		}
	}

	if g.hero.IsDefeated() {
		return false, nil
	}
	wasEndless := g.hero.EndlessMode()
	g.hero.EndFight(opp)
	lines := []string{fmt.Sprintf("%s has defeated %s!", g.hero.Name, opp.Name)}
	if !wasEndless && g.hero.EndlessMode() {
		lines = append(lines, "All bosses have been defeated, entering endless mode.")
	}
	if err := out.Render(g.hero, opp, lines); err != nil {
		return false, err
	}
	return true, nil
}

// event fires a transition. Transitions are bookkeeping and must complete
// even after ctx is cancelled, so only its values are passed on.
func (g *Game) event(ctx context.Context, name string) error {
	if err := g.machine.Event(context.WithoutCancel(ctx), name); err != nil {
		return fmt.Errorf("game %s: event %q in state %q: %w", g.id, name, g.machine.Current(), err)
	}
	return nil
}
