package ui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PagerOptions controls how ToPager decides between paging and printing.
type PagerOptions struct {
	// NoPager forces direct printing (the --no-pager flag).
	NoPager bool
}

// ToPager shows content through the user's pager when that helps: an
// interactive terminal and content taller than the window. Anything else
// (agent mode, CANVAS_AI_NO_PAGER, piped stdout, short content) prints
// directly. The pager command comes from CANVAS_AI_PAGER, then PAGER,
// then less.
func ToPager(content string, opts PagerOptions) error {
	if !wantPager(opts) || fitsOnScreen(content) {
		fmt.Print(content)
		return nil
	}

	// The command may carry arguments, like "less -R".
	argv := strings.Fields(pagerCommand())
	if len(argv) == 0 {
		fmt.Print(content)
		return nil
	}

	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 - pager comes from the user's own environment
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if os.Getenv("LESS") == "" {
		// -R keeps ANSI colors, -F quits when one screen suffices,
		// -X leaves the content on screen after exit.
		cmd.Env = append(cmd.Env, "LESS=-RFX")
	}
	return cmd.Run()
}

func wantPager(opts PagerOptions) bool {
	if opts.NoPager || IsAgentMode() {
		return false
	}
	if os.Getenv("CANVAS_AI_NO_PAGER") != "" {
		return false
	}
	return IsTerminal()
}

// fitsOnScreen reports whether content fits in the terminal window with
// a line to spare for the prompt. Unknown height means no.
func fitsOnScreen(content string) bool {
	height := terminalHeight()
	if height <= 0 {
		return false
	}
	lines := 0
	if content != "" {
		lines = strings.Count(content, "\n") + 1
	}
	return lines <= height-1
}

func pagerCommand() string {
	for _, key := range []string{"CANVAS_AI_PAGER", "PAGER"} {
		if pager := os.Getenv(key); pager != "" {
			return pager
		}
	}
	return "less"
}
