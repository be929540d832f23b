package handlers

import (
	"fmt"
	"strings"

	"github.com/culturebot/rpg/internal/frontend/telnet"
)

type tutorialEntry struct {
	title string
	body  string
}

type tutorialPage struct {
	name    string
	entries []tutorialEntry
}

var tutorial = []tutorialPage{
	{
		name: "basics",
		entries: []tutorialEntry{
			{"concept", "Your task is to defeat all the enemies you encounter in a dungeon. " +
				"You choose a move and the enemy moves at the same time. " +
				"At the start you choose a class which gives you a special move."},
			{"gameplay", "You fight a horde of enemies one by one. " +
				"Every third fight is a boss with a special move of its own. " +
				"Once every boss is defeated you enter endless mode."},
		},
	},
	{
		name: "fighting",
		entries: []tutorialEntry{
			{"turns", "Every turn both you and your opponent choose moves at the same time. " +
				"You can pick attack ⚔️, defend 🛡️ or rest 🔋. " +
				"There is also a special move which must be charged ⚡ and then unleashed ✨. " +
				"You cannot use the same move three times in a row."},
			{"attack ⚔️", "Deals damage based on your strength, consumes two stamina."},
			{"defend 🛡️", "Defends against an opponent's attack, consumes one stamina."},
			{"rest 🔋", "Restores your stamina, however you will be vulnerable to attacks."},
			{"charge ⚡", "Charges your special ability."},
			{"special ✨", "Uses your special ability."},
		},
	},
}

// TutorialPages returns the tutorial page names in reading order.
func TutorialPages() []string {
	names := make([]string, 0, len(tutorial))
	for _, p := range tutorial {
		names = append(names, p.name)
	}
	return names
}

// RenderTutorial formats the named page. An empty name selects the first page.
//
// Postcondition: Returns ("", false) when no page has that name.
func RenderTutorial(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, p := range tutorial {
		if name != "" && name != p.name {
			continue
		}
		var b strings.Builder
		b.WriteString(telnet.Colorf(telnet.BrightYellow, "rpg tutorial: %s", p.name))
		for _, e := range p.entries {
			b.WriteString("\n")
			b.WriteString(telnet.Colorize(telnet.Bold, e.title))
			b.WriteString("\n  ")
			b.WriteString(e.body)
		}
		b.WriteString("\n")
		b.WriteString(telnet.Colorize(telnet.Dim, fmt.Sprintf("page %d/%d, pages: %s",
			i+1, len(tutorial), strings.Join(TutorialPages(), ", "))))
		return b.String(), true
	}
	return "", false
}
