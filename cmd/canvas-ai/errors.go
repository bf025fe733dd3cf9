package main

import (
	"fmt"
	"os"

	canvasai "github.com/canvasai/canvas-ai"
	"github.com/canvasai/canvas-ai/internal/types"
	"github.com/canvasai/canvas-ai/internal/ui"
)

// errorEnvelope is the failure wrapper printed in --json mode. Field order
// follows the sorted-key contract: error, ok, schema_version.
type errorEnvelope struct {
	Error         errorBody `json:"error"`
	OK            bool      `json:"ok"`
	SchemaVersion string    `json:"schema_version"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
	Message string         `json:"message"`
}

// fail reports a command failure and exits 1. The error is coerced onto the
// taxonomy (unknown errors become INTERNAL_ERROR), recorded in the action
// log, then printed as a JSON error envelope on stdout or a red code line on
// stderr. It never returns.
func fail(err error) {
	cliErr, ok := types.AsCLIError(err)
	if !ok {
		cliErr = types.WrapInternal(err)
	}

	logEvent("error", string(cliErr.Code))

	if jsonOutput {
		details := cliErr.Details
		if details == nil {
			details = map[string]any{}
		}
		printJSON(errorEnvelope{
			Error: errorBody{
				Code:    string(cliErr.Code),
				Details: details,
				Message: cliErr.Message,
			},
			OK:            false,
			SchemaVersion: canvasai.SchemaVersion,
		})
	} else {
		fmt.Fprintln(os.Stderr, ui.RenderFail(string(cliErr.Code))+": "+cliErr.Message)
	}

	shutdown()
	os.Exit(1)
}

// failf is shorthand for fail with a fresh taxonomy error.
func failf(code types.ErrorCode, format string, args ...any) {
	fail(types.NewCLIError(code, format, args...))
}

// FatalError writes an infrastructure error to stderr and exits with code 1.
// Use this for failures outside the command envelope contract, like an
// unopenable database. Taxonomy failures go through fail instead.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, ui.RenderFail("Error:")+" "+fmt.Sprintf(format, args...))
	shutdown()
	os.Exit(1)
}

// WarnError writes a warning to stderr and returns. Use this for optional
// operations that enhance a command but aren't required for correctness.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, ui.RenderWarnIcon()+" "+ui.RenderWarn("Warning:")+" "+fmt.Sprintf(format, args...))
}
