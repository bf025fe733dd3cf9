// Package debug provides verbosity-gated output for the canvas-ai CLI.
// Diagnostics go to stderr so they never pollute JSON envelopes on
// stdout; informational output respects quiet mode.
package debug

import (
	"fmt"
	"os"
)

// Diagnostics and quiet mode are independent toggles: --verbose (or
// CANVAS_AI_DEBUG) turns diagnostics on, --quiet suppresses
// informational lines.
var (
	enabled = os.Getenv("CANVAS_AI_DEBUG") != ""
	verbose bool
	quiet   bool
)

// Enabled reports whether diagnostic output is on, via either the
// CANVAS_AI_DEBUG environment variable or SetVerbose.
func Enabled() bool { return enabled || verbose }

// SetVerbose turns diagnostic output on or off for this process.
func SetVerbose(on bool) { verbose = on }

// SetQuiet suppresses informational output.
func SetQuiet(on bool) { quiet = on }

// IsQuiet reports whether informational output is suppressed.
func IsQuiet() bool { return quiet }

// Logf writes a diagnostic message to stderr when diagnostics are on.
func Logf(format string, args ...any) {
	if Enabled() {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Printf writes diagnostic output to stdout when diagnostics are on.
// Reserve it for output that belongs with the command's result; most
// diagnostics should use Logf.
func Printf(format string, args ...any) {
	if Enabled() {
		fmt.Printf(format, args...)
	}
}

// PrintNormal writes informational output unless quiet mode is on.
func PrintNormal(format string, args ...any) {
	if !quiet {
		fmt.Printf(format, args...)
	}
}

// PrintlnNormal writes an informational line unless quiet mode is on.
func PrintlnNormal(args ...any) {
	if !quiet {
		fmt.Println(args...)
	}
}
