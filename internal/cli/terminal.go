// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for styled output.
//
// Color handling:
// - Colors are disabled for non-TTY output (piped, redirected) and --json
// - Respects NO_COLOR (via config) and ui.color = always|never
// - --no-color wins over everything

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40
)

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or DefaultTerminalWidth when w is
// not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// colorMode decides whether output to w is styled.
func colorMode(mode string, noColor, jsonMode bool, w io.Writer) bool {
	if noColor || jsonMode {
		return false
	}
	switch strings.ToLower(mode) {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTerminal(w)
	}
}

// configureColorProfile points lipgloss at the profile matching the decision.
func configureColorProfile(enabled bool, w io.Writer) {
	switch {
	case !enabled:
		lipgloss.SetColorProfile(termenv.Ascii)
	case isTerminal(w):
		lipgloss.SetColorProfile(termenv.ColorProfile())
	default:
		// forced color into a pipe
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}
