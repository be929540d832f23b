// Package handlers runs player sessions on a Terminal: the lobby, the
// prompts that feed the game driver, and the text rendering of the board.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/culturebot/rpg/internal/frontend/telnet"
	"github.com/culturebot/rpg/internal/game/driver"
	"github.com/culturebot/rpg/internal/game/session"
)

// ScoresShown is how many runs the scores command lists.
const ScoresShown = 10

// MaxPlayerName bounds the display name, in runes.
const MaxPlayerName = 16

// ScoreBoard lists recorded runs.
type ScoreBoard interface {
	// Top returns the best n runs.
	Top(ctx context.Context, n int) ([]driver.Result, error)
	// ByPlayer returns player's n most recent runs.
	ByPlayer(ctx context.Context, player string, n int) ([]driver.Result, error)
}

const welcomeBanner = "\r\n" + telnet.Bold + telnet.BrightRed + `
   ___ _   _ _ _____ _   _ ___ ___ ___  ___ _____   ___ ___  ___
  / __| | | | |_   _| | | | _ \ __| _ )/ _ \_   _| | _ \ _ \/ __|
 | (__| |_| | |__| | | |_| |   / _|| _ \ (_) || |   |   /  _/ (_ |
  \___|\___/|____|_|  \___/|_|_\___|___/\___/ |_|   |_|_\_|  \___|` + telnet.Reset + "\r\n"

// GameHandler implements telnet.SessionHandler. Each connection gets a
// lobby from which the player starts games.
type GameHandler struct {
	game     driver.Config
	sessions *session.Manager
	scores   ScoreBoard
	logger   *zap.Logger
	now      func() time.Time
}

// NewGameHandler creates a GameHandler. scores may be nil when run history
// is disabled.
//
// Precondition: game.Validate() returns nil; sessions and logger must be non-nil.
func NewGameHandler(game driver.Config, sessions *session.Manager, scores ScoreBoard, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		game:     game,
		sessions: sessions,
		scores:   scores,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleSession implements telnet.SessionHandler.
func (h *GameHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	return h.Serve(ctx, conn, conn.RemoteAddr().String())
}

// Serve runs the lobby on term until the player quits, the connection
// fails, or ctx is done.
//
// Postcondition: Returns nil on a clean quit.
func (h *GameHandler) Serve(ctx context.Context, term Terminal, addr string) error {
	logger := h.logger.With(zap.String("remote_addr", addr))
	if err := term.WriteLine(welcomeBanner); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	player, err := h.askName(ctx, term)
	if err != nil {
		return h.farewell(ctx, term, err)
	}
	logger = logger.With(zap.String("player", player))
	logger.Info("player joined")
	_ = term.WriteLine(telnet.Colorf(telnet.Green,
		"Welcome, %s! Type play to start a game, help for commands.", player))

	for {
		if err := term.WritePrompt(telnet.Colorize(telnet.BrightWhite, "> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := term.ReadLine(ctx)
		if err != nil {
			return h.farewell(ctx, term, err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "quit", "exit", "x":
			_ = term.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
			logger.Info("player quit")
			return nil
		case "play", "rpg", "game":
			if _, err := h.Play(ctx, term, player); err != nil {
				if ctx.Err() != nil {
					return h.farewell(ctx, term, err)
				}
				logger.Warn("game aborted", zap.Error(err))
				_ = term.WriteLine(telnet.Colorize(telnet.Red, "The game ended unexpectedly."))
			}
		case "tutorial", "rpghelp":
			page := ""
			if len(args) > 0 {
				page = args[0]
			}
			text, ok := RenderTutorial(page)
			if !ok {
				text = telnet.Colorf(telnet.Red, "No tutorial page %q. Pages: %s", page, strings.Join(TutorialPages(), ", "))
			}
			_ = term.WriteLine(text)
		case "scores":
			mine := len(args) > 0 && strings.EqualFold(args[0], "me")
			_ = term.WriteLine(h.renderScores(ctx, logger, player, mine))
		case "who":
			_ = term.WriteLine(RenderWho(h.sessions.List(), h.now()))
		case "help":
			_ = term.WriteLine(lobbyHelp)
		default:
			_ = term.WriteLine(telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", cmd))
		}
	}
}

const lobbyHelp = "Commands:\n" +
	"  play               start a game\n" +
	"  tutorial [page]    read the tutorial (basics, fighting)\n" +
	"  scores [me]        show the best runs, or your latest ones\n" +
	"  who                list players in the dungeon\n" +
	"  quit               disconnect"

// Play runs one game for player on term and registers it as an active
// session while it lasts.
//
// Postcondition: The session is closed when Play returns. The error is the
// one returned by driver.Game.Play.
func (h *GameHandler) Play(ctx context.Context, term Terminal, player string) (driver.Result, error) {
	sess := h.sessions.Open(player)
	h.logger.Info("session opened",
		zap.String("session", sess.ID),
		zap.String("player", player),
		zap.Int("active", h.sessions.Count()),
	)
	defer func() {
		_ = h.sessions.Close(sess.ID)
		h.logger.Info("session closed",
			zap.String("session", sess.ID),
			zap.Int("active", h.sessions.Count()),
		)
	}()

	cfg := h.game
	var game *driver.Game
	next := cfg.OnStateChange
	cfg.OnStateChange = func(id, state string) {
		_ = h.sessions.Update(id, func(s *session.Session) {
			s.State = state
			if game != nil && game.Hero() != nil {
				s.Hero = game.Hero().Class
			}
		})
		if next != nil {
			next(id, state)
		}
	}
	game, err := driver.New(cfg, sess.ID, player)
	if err != nil {
		return driver.Result{}, err
	}
	_ = h.sessions.Update(sess.ID, func(s *session.Session) { s.State = game.State() })
	return game.Play(ctx, NewPromptInput(term), NewBoardOutput(term))
}

func (h *GameHandler) askName(ctx context.Context, term Terminal) (string, error) {
	for {
		if err := term.WritePrompt(telnet.Colorize(telnet.BrightWhite, "What is your name, adventurer? ")); err != nil {
			return "", err
		}
		line, err := term.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		name := strings.TrimSpace(line)
		switch {
		case name == "":
			continue
		case cancelWords[strings.ToLower(name)]:
			return "", driver.ErrCancelled
		case utf8.RuneCountInString(name) > MaxPlayerName:
			_ = term.WriteLine(telnet.Colorf(telnet.Red, "Names are at most %d characters.", MaxPlayerName))
			continue
		}
		return name, nil
	}
}

func (h *GameHandler) renderScores(ctx context.Context, logger *zap.Logger, player string, mine bool) string {
	if h.scores == nil {
		return telnet.Colorize(telnet.Dim, "Run history is disabled on this server.")
	}
	title := "Best runs"
	var runs []driver.Result
	var err error
	if mine {
		title = "Your latest runs"
		runs, err = h.scores.ByPlayer(ctx, player, ScoresShown)
	} else {
		runs, err = h.scores.Top(ctx, ScoresShown)
	}
	if err != nil {
		logger.Error("loading scores", zap.Bool("mine", mine), zap.Error(err))
		return telnet.Colorize(telnet.Red, "Scores are unavailable right now.")
	}
	return RenderScores(title, runs)
}

// farewell ends the lobby after err. A player leaving or hanging up is a
// clean exit.
func (h *GameHandler) farewell(ctx context.Context, term Terminal, err error) error {
	switch {
	case errors.Is(err, driver.ErrCancelled):
		_ = term.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
		return nil
	case errors.Is(err, io.EOF):
		h.logger.Info("player disconnected")
		return nil
	case ctx.Err() != nil:
		_ = term.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
		return ctx.Err()
	}
	return fmt.Errorf("reading input: %w", err)
}
