package handlers

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/culturebot/rpg/internal/frontend/telnet"
	"github.com/culturebot/rpg/internal/game/driver"
	"github.com/culturebot/rpg/internal/game/rpg"
	"github.com/culturebot/rpg/internal/game/session"
)

// ColumnGap separates the hero and opponent tables.
const ColumnGap = "      "

// StatsTable formats e as the fixed-width stats card shown during fights.
//
// Postcondition: Every line of the result has the same visible width.
func StatsTable(e *rpg.Entity) string {
	charged := strings.Repeat(" ", 8)
	if e.Charged {
		charged = "charged!"
	}
	var b strings.Builder
	b.WriteString("+-------+-------+\n")
	fmt.Fprintf(&b, "| %2d hp | %2d st |\n", e.Health, e.Stamina)
	b.WriteString("+-------+-------+\n")
	fmt.Fprintf(&b, "|%s|\n", center(e.Name, 15))
	b.WriteString("+----------+----+\n")
	fmt.Fprintf(&b, "| strength | %s |\n", center(fmt.Sprint(e.Strength), 2))
	b.WriteString("+----------+----+\n")
	fmt.Fprintf(&b, "| health   | %s |\n", center(fmt.Sprint(e.MaxHealth), 2))
	b.WriteString("+----------+----+\n")
	fmt.Fprintf(&b, "| stamina  | %s |\n", center(fmt.Sprint(e.MaxStamina), 2))
	b.WriteString("+----------+----+\n")
	fmt.Fprintf(&b, "lvl %-2d   %s", e.Level, charged)
	return b.String()
}

// center pads s to width with the extra space on the right. Longer strings
// are truncated.
func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return string([]rune(s)[:width])
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// JoinColumns places multi-line blocks side by side, joining row i of every
// block with sep. Output stops at the shortest block.
func JoinColumns(sep string, blocks ...string) string {
	if len(blocks) == 0 {
		return ""
	}
	split := make([][]string, len(blocks))
	rows := -1
	for i, blk := range blocks {
		split[i] = strings.Split(blk, "\n")
		if rows < 0 || len(split[i]) < rows {
			rows = len(split[i])
		}
	}
	lines := make([]string, rows)
	parts := make([]string, len(blocks))
	for r := 0; r < rows; r++ {
		for i := range split {
			parts[i] = split[i][r]
		}
		lines[r] = strings.Join(parts, sep)
	}
	return strings.Join(lines, "\n")
}

// RenderBoard formats the hero card, the opponent card when present, and
// the narration below them.
func RenderBoard(hero *rpg.Hero, opponent *rpg.Entity, narration []string) string {
	board := StatsTable(&hero.Entity)
	if opponent != nil {
		board = JoinColumns(ColumnGap, board, StatsTable(opponent))
	}
	var b strings.Builder
	b.WriteString(board)
	for _, line := range narration {
		b.WriteString("\n")
		b.WriteString(telnet.Colorize(telnet.Cyan, line))
	}
	return b.String()
}

// RenderHeroMenu formats the hero selection menu.
func RenderHeroMenu(choices []driver.HeroChoice) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.Bold, "Please pick a hero:"))
	for i, c := range choices {
		line := fmt.Sprintf("%d: %-6s %s | %s", i+1, strings.ToLower(c.Template.Name), c.Template.Emoji, heroBlurb(c.Template))
		if !c.Available {
			line = telnet.Colorize(telnet.Dim, line+" (unavailable)")
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func heroBlurb(t *rpg.Template) string {
	switch {
	case t.Blurb != "":
		return t.Blurb
	case t.Special != "":
		return t.Special
	default:
		return "no special"
	}
}

var difficultyGlyphs = map[rpg.Difficulty]string{
	rpg.DifficultyEasy:   "🟩",
	rpg.DifficultyNormal: "🟨",
	rpg.DifficultyHard:   "🟥",
}

// RenderDifficultyMenu formats the difficulty menu.
func RenderDifficultyMenu(choices []driver.DifficultyChoice) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.Bold, "Please pick a difficulty:"))
	for i, c := range choices {
		line := fmt.Sprintf("%d: %-6s %s | %s", i+1, c.Difficulty, difficultyGlyphs[c.Difficulty], c.Difficulty.Blurb())
		if !c.Available {
			line = telnet.Colorize(telnet.Dim, line+" (unavailable)")
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// RenderMovePrompt formats the prompt listing the hero's legal moves.
func RenderMovePrompt(possible []rpg.Move) string {
	names := make([]string, 0, len(possible))
	for _, m := range possible {
		names = append(names, fmt.Sprintf("%s %s", m, m.Emoji()))
	}
	return telnet.Colorf(telnet.BrightWhite, "Your move [%s]: ", strings.Join(names, ", "))
}

// RenderScores formats recorded runs under title.
func RenderScores(title string, runs []driver.Result) string {
	if len(runs) == 0 {
		return telnet.Colorize(telnet.Dim, "No runs recorded yet.")
	}
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightYellow, title+":"))
	for i, r := range runs {
		fmt.Fprintf(&b, "\n%2d. %-16s %-8s %-6s %3d defeated  %s",
			i+1, r.Player, r.Hero, r.Difficulty, r.Defeated, r.EndedAt.Format(time.DateOnly))
	}
	return b.String()
}

// RenderWho formats the active session list.
func RenderWho(sessions []session.Session, now time.Time) string {
	if len(sessions) == 0 {
		return telnet.Colorize(telnet.Dim, "Nobody is playing.")
	}
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.Green, "%d playing:", len(sessions)))
	for _, s := range sessions {
		hero := s.Hero
		if hero == "" {
			hero = "-"
		}
		fmt.Fprintf(&b, "\n  %-16s %-8s %-20s %s",
			s.Player, hero, s.State, now.Sub(s.StartedAt).Truncate(time.Second))
	}
	return b.String()
}
