// Package ui renders canvas-ai terminal output: semantic colors, run
// status badges, markdown, and pager plumbing. Colors follow the
// Catppuccin palette (Latte for light terminals, Mocha for dark).
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// adaptive builds a style around a Latte/Mocha color pair.
func adaptive(light, dark string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: light, Dark: dark})
}

// One style per semantic role. Commands never pick raw colors; they say
// what a string means and the palette decides how it looks.
var (
	passStyle   = adaptive("#40a02b", "#a6e3a1") // green
	warnStyle   = adaptive("#df8e1d", "#f9e2af") // yellow
	failStyle   = adaptive("#d20f39", "#f38ba8") // red
	mutedStyle  = adaptive("#8c8fa1", "#7f849c") // overlay1
	accentStyle = adaptive("#1e66f5", "#89b4fa") // blue

	categoryStyle = adaptive("#1e66f5", "#89b4fa").Bold(true)
)

const separator = "──────────────────────────────────────────"

// icon picks the glyph badge or its ASCII stand-in. CANVAS_AI_NO_EMOJI
// and non-terminal output both force ASCII.
func icon(glyph, ascii string) string {
	if ShouldUseEmoji() {
		return glyph
	}
	return ascii
}

func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderCategory renders a section header in bold uppercase accent.
func RenderCategory(s string) string {
	return categoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders a muted horizontal rule.
func RenderSeparator() string {
	return mutedStyle.Render(separator)
}

// RenderStatus colors a run status or workflow state by meaning: terminal
// states in pass/fail colors, in-flight states in accent, queued muted.
// Unknown statuses pass through unstyled.
func RenderStatus(status string) string {
	switch status {
	case "succeeded", "ready":
		return passStyle.Render(status)
	case "failed":
		return failStyle.Render(status)
	case "running", "planning", "drafting", "reviewing":
		return accentStyle.Render(status)
	case "queued":
		return mutedStyle.Render(status)
	default:
		return status
	}
}

// StatusIcon returns the styled one-rune badge for a run status or
// workflow state.
func StatusIcon(status string) string {
	switch status {
	case "succeeded", "ready":
		return RenderPassIcon()
	case "failed":
		return RenderFailIcon()
	case "running", "planning", "drafting", "reviewing":
		return RenderInfoIcon()
	default:
		return RenderSkipIcon()
	}
}

func RenderPassIcon() string { return passStyle.Render(icon("✓", "+")) }
func RenderWarnIcon() string { return warnStyle.Render(icon("⚠", "!")) }
func RenderFailIcon() string { return failStyle.Render(icon("✗", "x")) }
func RenderSkipIcon() string { return mutedStyle.Render(icon("-", "-")) }
func RenderInfoIcon() string { return accentStyle.Render(icon("ℹ", "i")) }
