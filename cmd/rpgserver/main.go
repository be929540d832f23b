// Package main provides the Telnet game server: players connect, pick a
// hero and fight encounters until they fall.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/culturebot/rpg/internal/config"
	"github.com/culturebot/rpg/internal/frontend/handlers"
	"github.com/culturebot/rpg/internal/frontend/telnet"
	"github.com/culturebot/rpg/internal/game/session"
	"github.com/culturebot/rpg/internal/game/setup"
	"github.com/culturebot/rpg/internal/observability"
	"github.com/culturebot/rpg/internal/server"
	"github.com/culturebot/rpg/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting rpg server", zap.String("telnet_addr", cfg.Telnet.Addr()))

	game, err := setup.Build(cfg.Game, logger)
	if err != nil {
		logger.Fatal("building game", zap.Error(err))
	}
	defer game.Close()

	ctx := context.Background()
	lifecycle := server.NewLifecycle(logger)

	var scores handlers.ScoreBoard
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		runs := postgres.NewRunRepository(pool.DB())
		game.Driver.Recorder = runs
		scores = runs

		stop := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-stop:
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: func() {
				close(stop)
				pool.Close()
			},
		})
	} else {
		logger.Info("run history disabled")
	}

	sessions := session.NewManager()
	handler := handlers.NewGameHandler(game.Driver, sessions, scores, logger)
	acceptor := telnet.NewAcceptor(cfg.Telnet, handler, logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("rpg server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
