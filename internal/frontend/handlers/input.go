package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/culturebot/rpg/internal/frontend/telnet"
	"github.com/culturebot/rpg/internal/game/driver"
	"github.com/culturebot/rpg/internal/game/rpg"
)

// cancelWords end the game from any prompt.
var cancelWords = map[string]bool{"x": true, "quit": true, "exit": true, "❌": true}

// PromptInput implements driver.Input by prompting on a Terminal. Bad
// answers are explained and asked again.
type PromptInput struct {
	term Terminal
}

// NewPromptInput creates a PromptInput.
//
// Precondition: term must be non-nil.
func NewPromptInput(term Terminal) *PromptInput {
	return &PromptInput{term: term}
}

// ChooseHero shows the hero menu and returns the picked template's name.
// A hero is picked by number, name or emoji.
func (p *PromptInput) ChooseHero(ctx context.Context, choices []driver.HeroChoice) (string, error) {
	if err := p.term.WriteLine(RenderHeroMenu(choices)); err != nil {
		return "", err
	}
	for {
		answer, err := p.ask(ctx, "> ")
		if err != nil {
			return "", err
		}
		for i, c := range choices {
			if answer == strconv.Itoa(i+1) ||
				strings.EqualFold(answer, c.Template.Name) ||
				(c.Template.Emoji != "" && sameGlyph(answer, c.Template.Emoji)) {
				return c.Template.Name, nil
			}
		}
		if err := p.complain(fmt.Sprintf("Unknown hero %q, pick one from the list.", answer)); err != nil {
			return "", err
		}
	}
}

// ChooseDifficulty shows the difficulty menu and returns the picked tier.
// A tier is picked by number, name or colored square.
func (p *PromptInput) ChooseDifficulty(ctx context.Context, choices []driver.DifficultyChoice) (rpg.Difficulty, error) {
	if err := p.term.WriteLine(RenderDifficultyMenu(choices)); err != nil {
		return rpg.DifficultyUnknown, err
	}
	for {
		answer, err := p.ask(ctx, "> ")
		if err != nil {
			return rpg.DifficultyUnknown, err
		}
		if d, ok := rpg.ParseDifficulty(answer); ok {
			return d, nil
		}
		for d, glyph := range difficultyGlyphs {
			if answer == glyph {
				return d, nil
			}
		}
		if err := p.complain(fmt.Sprintf("Unknown difficulty %q.", answer)); err != nil {
			return rpg.DifficultyUnknown, err
		}
	}
}

// RequestMove prompts until the player names one of possible.
func (p *PromptInput) RequestMove(ctx context.Context, _ *rpg.Hero, _ *rpg.Entity, possible []rpg.Move) (rpg.Move, error) {
	for {
		answer, err := p.ask(ctx, RenderMovePrompt(possible))
		if err != nil {
			return rpg.MoveUnknown, err
		}
		m, ok := rpg.ParseMove(answer)
		switch {
		case !ok:
			err = p.complain(fmt.Sprintf("Unknown move %q.", answer))
		case !containsMove(possible, m):
			err = p.complain(fmt.Sprintf("You can't %s right now.", m))
		default:
			return m, nil
		}
		if err != nil {
			return rpg.MoveUnknown, err
		}
	}
}

// ask reads the next non-blank answer.
func (p *PromptInput) ask(ctx context.Context, prompt string) (string, error) {
	for {
		if err := p.term.WritePrompt(prompt); err != nil {
			return "", err
		}
		line, err := p.term.ReadLine(ctx)
		if err != nil {
			return "", inputErr(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if cancelWords[strings.ToLower(line)] {
			return "", driver.ErrCancelled
		}
		return line, nil
	}
}

func (p *PromptInput) complain(msg string) error {
	return p.term.WriteLine(telnet.Colorize(telnet.Red, msg))
}

// inputErr maps transport failures onto the driver's sentinels. A closed
// connection counts as the player leaving; an idle read timeout as the
// player not answering.
func inputErr(err error) error {
	switch {
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: connection closed", driver.ErrCancelled)
	case errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%w: %w", driver.ErrTimedOut, err)
	}
	return err
}

func sameGlyph(a, b string) bool {
	return strings.TrimSuffix(a, "\ufe0f") == strings.TrimSuffix(b, "\ufe0f")
}

func containsMove(moves []rpg.Move, m rpg.Move) bool {
	for _, x := range moves {
		if x == m {
			return true
		}
	}
	return false
}

// BoardOutput implements driver.Output by writing to a Terminal.
type BoardOutput struct {
	term Terminal
}

// NewBoardOutput creates a BoardOutput.
//
// Precondition: term must be non-nil.
func NewBoardOutput(term Terminal) *BoardOutput {
	return &BoardOutput{term: term}
}

// Render writes the stats cards and narration.
func (o *BoardOutput) Render(hero *rpg.Hero, opponent *rpg.Entity, narration []string) error {
	return o.term.WriteLine(RenderBoard(hero, opponent, narration))
}

// Announce writes a highlighted status line.
func (o *BoardOutput) Announce(text string) error {
	return o.term.WriteLine(telnet.Colorize(telnet.BrightYellow, text))
}
