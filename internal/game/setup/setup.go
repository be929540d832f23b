// Package setup assembles the game collaborators shared by the binaries
// from configuration: roster, abilities (built-in and scripted), enemy
// strategies and the randomness source.
package setup

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/culturebot/rpg/internal/config"
	"github.com/culturebot/rpg/internal/game/dice"
	"github.com/culturebot/rpg/internal/game/driver"
	"github.com/culturebot/rpg/internal/game/rpg"
	"github.com/culturebot/rpg/internal/scripting"
)

// Game is the shared game wiring of one process.
type Game struct {
	// Driver is the base configuration for every game session. Recorder and
	// OnStateChange are left for the caller.
	Driver driver.Config
	// Scripts is nil when scripting is disabled.
	Scripts *scripting.Manager
}

// Close releases the scripting VM, if any.
func (g *Game) Close() {
	if g.Scripts != nil {
		g.Scripts.Close()
	}
}

// Build loads content and assembles a Game.
//
// Precondition: cfg passed config validation; logger must be non-nil.
// Postcondition: Returns a Game whose Driver passes driver.Config.Validate,
// or a non-nil error. The caller must Close the Game.
func Build(cfg config.GameConfig, logger *zap.Logger) (*Game, error) {
	roster, err := rpg.LoadRoster(cfg.RosterDir)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}

	g := &Game{}
	abilities := rpg.DefaultAbilities()
	if cfg.ScriptDir != "" {
		g.Scripts = scripting.NewManager(logger, cfg.ScriptInstructionLimit)
		if err := g.Scripts.Load(cfg.ScriptDir); err != nil {
			g.Close()
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		if err := g.Scripts.RegisterAbilities(abilities); err != nil {
			g.Close()
			return nil, err
		}
	}
	if missing := roster.UnimplementedSpecials(abilities); len(missing) > 0 {
		logger.Warn("specials without an ability; heroes using them are unavailable",
			zap.Strings("specials", missing))
	}

	var src dice.Source
	if cfg.Seed != 0 {
		src = dice.NewSeededSource(cfg.Seed)
		logger.Info("using seeded randomness", zap.Int64("seed", cfg.Seed))
	} else {
		src = dice.NewCryptoSource()
	}

	g.Driver = driver.Config{
		Roster:      roster,
		Engine:      rpg.NewEngine(abilities),
		Strategies:  rpg.NewStrategies(),
		Source:      dice.NewLoggedSource(src, logger),
		Logger:      logger,
		MoveTimeout: cfg.MoveTimeout,
	}
	if err := g.Driver.Validate(); err != nil {
		g.Close()
		return nil, err
	}

	logger.Info("game content loaded",
		zap.Int("heroes", len(roster.Heroes)),
		zap.Int("enemies", len(roster.Enemies)),
		zap.Int("bosses", len(roster.Bosses)),
		zap.Strings("abilities", abilities.Kinds()),
	)
	return g, nil
}
