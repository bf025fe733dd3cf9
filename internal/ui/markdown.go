package ui

import (
	"os"
	"strings"
	"unicode/utf8"

	glamour "charm.land/glamour/v2"
	"golang.org/x/term"
)

// Lines wider than this are hard to scan even on wide terminals.
const maxReadableWidth = 100

// RenderMarkdown renders markdown for terminal display using glamour,
// word-wrapped to the terminal width. Agent mode gets the source back
// untouched so parsers see raw markdown. With colors disabled, or when
// glamour fails, a human terminal still gets plain word-wrapped text.
func RenderMarkdown(markdown string) string {
	if IsAgentMode() {
		return markdown
	}
	if !ShouldUseColor() {
		return renderPlain(markdown)
	}

	// glamour v2 removed WithAutoStyle; "dark" is the v2 default style.
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(displayWidth()),
	)
	if err != nil {
		return renderPlain(markdown)
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return renderPlain(markdown)
	}
	return rendered
}

// renderPlain is the unstyled path: wrapped for a terminal reader, raw
// for pipes so downstream tools see the markdown unmodified.
func renderPlain(markdown string) string {
	if IsTerminal() {
		return WrapText(markdown, displayWidth())
	}
	return markdown
}

func displayWidth() int {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	if width > maxReadableWidth {
		width = maxReadableWidth
	}
	return width
}

// WrapText word-wraps text to maxWidth columns, preserving existing line
// breaks. A word longer than the width stays unbroken on its own line.
// Non-positive widths fall back to 80 columns.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 80
	}
	in := strings.Split(text, "\n")
	out := make([]string, 0, len(in))
	for _, line := range in {
		out = append(out, wrapLine(line, maxWidth)...)
	}
	return strings.Join(out, "\n")
}

// wrapLine breaks one logical line into physical lines at word
// boundaries. Lines already within the width pass through verbatim,
// whitespace intact.
func wrapLine(line string, maxWidth int) []string {
	if utf8.RuneCountInString(line) <= maxWidth {
		return []string{line}
	}

	var (
		wrapped []string
		current strings.Builder
		width   int
	)
	for _, word := range strings.Fields(line) {
		wordWidth := utf8.RuneCountInString(word)
		switch {
		case width == 0:
			current.WriteString(word)
			width = wordWidth
		case width+1+wordWidth <= maxWidth:
			current.WriteByte(' ')
			current.WriteString(word)
			width += 1 + wordWidth
		default:
			wrapped = append(wrapped, current.String())
			current.Reset()
			current.WriteString(word)
			width = wordWidth
		}
	}
	if width > 0 || len(wrapped) == 0 {
		wrapped = append(wrapped, current.String())
	}
	return wrapped
}
