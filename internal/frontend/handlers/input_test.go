package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturebot/rpg/internal/frontend/telnet"
	"github.com/culturebot/rpg/internal/game/driver"
	"github.com/culturebot/rpg/internal/game/rpg"
)

// fakeTerminal answers reads from a script and records everything written.
// After the script runs out ReadLine returns end, or io.EOF when end is nil.
type fakeTerminal struct {
	lines []string
	end   error
	out   strings.Builder
}

func newFakeTerminal(lines ...string) *fakeTerminal {
	return &fakeTerminal{lines: lines}
}

func (f *fakeTerminal) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.lines) == 0 {
		if f.end != nil {
			return "", f.end
		}
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeTerminal) WriteLine(text string) error {
	f.out.WriteString(text + "\n")
	return nil
}

func (f *fakeTerminal) WritePrompt(prompt string) error {
	f.out.WriteString(prompt)
	return nil
}

func (f *fakeTerminal) text() string { return telnet.StripANSI(f.out.String()) }

func heroChoices() []driver.HeroChoice {
	return []driver.HeroChoice{
		{Template: &rpg.Template{Name: "Knight", Emoji: "⚔️", Special: "bleed"}, Available: true},
		{Template: &rpg.Template{Name: "Rogue", Emoji: "🗡️", Special: "dodge"}, Available: false},
		{Template: &rpg.Template{Name: "Viking", Emoji: "🪓", Special: "punch"}, Available: true},
	}
}

func TestPromptInput_ChooseHero(t *testing.T) {
	cases := []struct {
		answer string
		want   string
	}{
		{"1", "Knight"},
		{"viking", "Viking"},
		{"ROGUE", "Rogue"},
		{"🪓", "Viking"},
		{"⚔", "Knight"},
	}
	for _, tc := range cases {
		t.Run(tc.answer, func(t *testing.T) {
			term := newFakeTerminal(tc.answer)
			got, err := NewPromptInput(term).ChooseHero(context.Background(), heroChoices())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Contains(t, term.text(), "Please pick a hero:")
		})
	}
}

func TestPromptInput_ChooseHero_AsksAgain(t *testing.T) {
	term := newFakeTerminal("", "paladin", "3")
	got, err := NewPromptInput(term).ChooseHero(context.Background(), heroChoices())
	require.NoError(t, err)
	assert.Equal(t, "Viking", got)
	assert.Contains(t, term.text(), `Unknown hero "paladin", pick one from the list.`)
	assert.Equal(t, 1, strings.Count(term.text(), "Please pick a hero:"), "menu shown once")
}

func TestPromptInput_CancelWords(t *testing.T) {
	for _, word := range []string{"x", "quit", "EXIT", "❌"} {
		t.Run(word, func(t *testing.T) {
			_, err := NewPromptInput(newFakeTerminal(word)).ChooseHero(context.Background(), heroChoices())
			assert.ErrorIs(t, err, driver.ErrCancelled)
		})
	}
}

func TestPromptInput_ChooseDifficulty(t *testing.T) {
	choices := []driver.DifficultyChoice{
		{Difficulty: rpg.DifficultyEasy, Available: true},
		{Difficulty: rpg.DifficultyNormal},
		{Difficulty: rpg.DifficultyHard},
	}
	for answer, want := range map[string]rpg.Difficulty{
		"1":      rpg.DifficultyEasy,
		"normal": rpg.DifficultyNormal,
		"🟥":      rpg.DifficultyHard,
	} {
		term := newFakeTerminal("impossible", answer)
		got, err := NewPromptInput(term).ChooseDifficulty(context.Background(), choices)
		require.NoError(t, err, answer)
		assert.Equal(t, want, got, answer)
		assert.Contains(t, term.text(), `Unknown difficulty "impossible".`)
	}
}

func TestPromptInput_RequestMove(t *testing.T) {
	possible := []rpg.Move{rpg.Attack, rpg.Defend, rpg.Rest, rpg.Charge}
	term := newFakeTerminal("dance", "special", "⚡")
	got, err := NewPromptInput(term).RequestMove(context.Background(), nil, nil, possible)
	require.NoError(t, err)
	assert.Equal(t, rpg.Charge, got)

	out := term.text()
	assert.Contains(t, out, `Unknown move "dance".`)
	assert.Contains(t, out, "You can't special right now.")
	assert.Equal(t, 3, strings.Count(out, "Your move ["))
}

func TestPromptInput_TransportErrors(t *testing.T) {
	possible := []rpg.Move{rpg.Rest}

	_, err := NewPromptInput(newFakeTerminal()).RequestMove(context.Background(), nil, nil, possible)
	assert.ErrorIs(t, err, driver.ErrCancelled, "closed connection")

	idle := newFakeTerminal()
	idle.end = fmt.Errorf("read tcp: %w", os.ErrDeadlineExceeded)
	_, err = NewPromptInput(idle).RequestMove(context.Background(), nil, nil, possible)
	assert.ErrorIs(t, err, driver.ErrTimedOut, "idle read timeout")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewPromptInput(newFakeTerminal("rest")).RequestMove(ctx, nil, nil, possible)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBoardOutput(t *testing.T) {
	term := newFakeTerminal()
	out := NewBoardOutput(term)
	hero := rpg.NewHero(&rpg.Template{Name: "Knight", Strength: 2, Health: 4, Stamina: 4}, nil)

	require.NoError(t, out.Announce("A wild Goblin appears!"))
	require.NoError(t, out.Render(hero, rpg.NewEntity(rpg.RoleEnemy, "Goblin", 2, 2, 4), []string{"Knight has rested"}))

	text := term.text()
	assert.Contains(t, text, "A wild Goblin appears!")
	assert.Contains(t, text, "|    Knight     |"+ColumnGap+"|    Goblin     |")
	assert.Contains(t, text, "Knight has rested")
}
