package main

import (
	"encoding/json"
	"fmt"

	canvasai "github.com/canvasai/canvas-ai"
	"github.com/canvasai/canvas-ai/internal/debug"
)

// Envelope is the success wrapper every command prints in --json mode.
// Struct fields are declared in sorted key order so the marshaled document
// matches the documented envelope contract byte for byte.
type Envelope struct {
	Command       string   `json:"command"`
	Lines         []string `json:"lines"`
	OK            bool     `json:"ok"`
	Result        any      `json:"result"`
	SchemaVersion string   `json:"schema_version"`
}

// emit prints a command's success output: the JSON envelope in --json mode,
// otherwise the human-readable lines (suppressed by --quiet). Result must
// marshal to a JSON object.
func emit(command string, result any, lines ...string) {
	if jsonOutput {
		if lines == nil {
			lines = []string{}
		}
		printJSON(Envelope{
			Command:       command,
			Lines:         lines,
			OK:            true,
			Result:        result,
			SchemaVersion: canvasai.SchemaVersion,
		})
		return
	}
	for _, line := range lines {
		debug.PrintlnNormal(line)
	}
}

// printJSON writes one compact JSON document to stdout. A marshal failure is
// a programming error and exits rather than emitting a torn envelope.
func printJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		FatalError("marshaling output: %v", err)
	}
	fmt.Println(string(data))
}
