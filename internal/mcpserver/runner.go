package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultBinary is the CLI executable spawned when CANVAS_AI_BIN is unset.
const DefaultBinary = "canvas-ai"

// Runner invokes the canvas-ai CLI and hands back the JSON envelope it
// prints. Every failure mode (missing binary, empty output, unparseable
// output, contract drift) is converted into an ok:false payload, so MCP
// clients always receive a well-formed result instead of a transport
// error.
type Runner struct {
	// run executes argv and reports the captured output plus the exit
	// code. A non-nil error means the process could not be started.
	run func(ctx context.Context, argv []string) (stdout, stderr string, exitCode int, err error)
}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() *Runner {
	return &Runner{run: runProcess}
}

// Binary resolves the CLI executable name. CANVAS_AI_BIN overrides the
// default so packaged installs and tests can point at a specific build.
func Binary() string {
	if bin := os.Getenv("CANVAS_AI_BIN"); bin != "" {
		return bin
	}
	return DefaultBinary
}

// Invoke runs `canvas-ai --json <args>` and returns the parsed envelope.
func (r *Runner) Invoke(ctx context.Context, args ...string) map[string]any {
	bin := Binary()
	argv := append([]string{bin, "--json"}, args...)

	stdout, stderr, exitCode, err := r.run(ctx, argv)
	if err != nil {
		return errorPayload(codeBinaryMissing,
			fmt.Sprintf("`%s` is not installed or not on PATH. Install this package first.", bin),
			map[string]any{"command": argv})
	}

	stdout = strings.TrimSpace(stdout)
	stderr = strings.TrimSpace(stderr)
	if stdout == "" {
		return errorPayload(codeInternal, "No JSON returned from canvas-ai.", map[string]any{
			"stderr":    stderr,
			"exit_code": exitCode,
			"command":   argv,
		})
	}

	payload := parseEnvelope(stdout)
	if payload == nil {
		return errorPayload(codeInternal, "Failed to parse JSON returned from canvas-ai.", map[string]any{
			"stdout":    stdout,
			"stderr":    stderr,
			"exit_code": exitCode,
			"command":   argv,
		})
	}

	if drift := validateEnvelope(payload); drift != nil {
		return drift
	}
	return payload
}

// parseEnvelope decodes the CLI's JSON envelope from stdout. The whole
// output is tried first; failing that, lines are scanned bottom-up so
// stray diagnostics printed above the envelope do not break parsing.
func parseEnvelope(stdout string) map[string]any {
	var whole map[string]any
	if err := json.Unmarshal([]byte(stdout), &whole); err == nil && whole != nil {
		return whole
	}
	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(line), &payload); err == nil && payload != nil {
			return payload
		}
	}
	return nil
}

// runProcess executes argv with CANVAS_AI_AGENT=1 set so the CLI keeps its
// output plain: no pager, no styled markdown, envelope on stdout.
func runProcess(ctx context.Context, argv []string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), "CANVAS_AI_AGENT=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never started: binary missing or not executable.
			return "", "", 0, err
		}
	}
	return stdout.String(), stderr.String(), cmd.ProcessState.ExitCode(), nil
}
