// Package ui provides terminal styling for canvas-ai CLI output.
package ui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsAgentMode reports whether the CLI is being driven by another program
// rather than a human. The MCP server sets CANVAS_AI_AGENT=1 for every
// invocation. Agent mode keeps output free of markdown rendering and pagers
// so callers can parse it.
func IsAgentMode() bool {
	return os.Getenv("CANVAS_AI_AGENT") != ""
}

// ShouldUseColor determines whether output may include ANSI colors.
// Honors NO_COLOR (https://no-color.org/) and CLICOLOR / CLICOLOR_FORCE
// (https://bixense.com/clicolors/); otherwise color requires a TTY.
// NO_COLOR takes precedence over CLICOLOR_FORCE.
func ShouldUseColor() bool {
	return termenv.EnvColorProfile() != termenv.Ascii
}

// ShouldUseEmoji reports whether status icons may use emoji.
// CANVAS_AI_NO_EMOJI disables emoji regardless of terminal support.
func ShouldUseEmoji() bool {
	if os.Getenv("CANVAS_AI_NO_EMOJI") != "" {
		return false
	}
	return IsTerminal()
}

// terminalHeight returns the window height in lines, or 0 when stdout
// is not a terminal.
func terminalHeight() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	_, height, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return height
}
