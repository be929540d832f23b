// Package main plays the game on the local terminal, one session per run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/culturebot/rpg/internal/config"
	"github.com/culturebot/rpg/internal/frontend/handlers"
	"github.com/culturebot/rpg/internal/game/session"
	"github.com/culturebot/rpg/internal/game/setup"
	"github.com/culturebot/rpg/internal/observability"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	player := flag.String("name", os.Getenv("USER"), "player name")
	seed := flag.Int64("seed", 0, "seed enemy decisions for a reproducible game (0 = random)")
	flag.Parse()

	v := config.NewViper()
	v.SetConfigFile(*configPath)
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("reading config: %v", err)
	}
	// Logs would interleave with the game on stdout.
	v.Set("logging.output", "stderr")
	v.Set("logging.level", "warn")
	if *seed != 0 {
		v.Set("game.seed", *seed)
	}
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	game, err := setup.Build(cfg.Game, logger)
	if err != nil {
		logger.Fatal("building game", zap.Error(err))
	}
	defer game.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	name := *player
	if name == "" {
		name = "adventurer"
	}
	console := handlers.NewConsole(os.Stdin, os.Stdout)
	handler := handlers.NewGameHandler(game.Driver, session.NewManager(), nil, logger)
	res, err := handler.Play(ctx, console, name)
	if err != nil {
		logger.Error("game aborted", zap.Error(err))
		os.Exit(1)
	}
	if res.Hero != "" {
		fmt.Printf("%s: %d enemies defeated (%s)\n", res.Hero, res.Defeated, res.Outcome)
	}
}
