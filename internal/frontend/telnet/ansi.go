// Package telnet provides a line-oriented Telnet server with ANSI styling for
// the game frontend.
package telnet

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ANSI escape codes used by the game frontend.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red          = "\033[31m"
	Green        = "\033[32m"
	Yellow       = "\033[33m"
	Cyan         = "\033[36m"
	BrightRed    = "\033[91m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns text wrapped with the color code and Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf wraps a formatted string with the given ANSI color code.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns s with all \033[...m sequences removed.
func StripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			if end := strings.IndexByte(s[i+2:], 'm'); end >= 0 {
				i += end + 3
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// VisibleWidth returns the number of runes s occupies once styling is removed.
func VisibleWidth(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}
