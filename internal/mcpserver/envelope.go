package mcpserver

import (
	"fmt"

	canvasai "github.com/canvasai/canvas-ai"
)

// Error codes emitted by the MCP layer itself. VALIDATION_ERROR and
// INTERNAL_ERROR mirror the CLI taxonomy; the other two name failures that
// happen outside the CLI process, before any envelope exists.
const (
	codeBinaryMissing    = "CLI_BINARY_MISSING"
	codeSchemaValidation = "SCHEMA_VALIDATION_ERROR"
	codeValidation       = "VALIDATION_ERROR"
	codeInternal         = "INTERNAL_ERROR"
)

// commandResultFields lists, per envelope command, the result fields the
// CLI guarantees. An envelope whose command is missing from this registry,
// or whose result lacks a listed field, is reported as contract drift
// rather than relayed to the client.
var commandResultFields = map[string][]string{
	"agent.capabilities": {"commands"},
	"auth.status":        {"auth_mode", "base_url", "token"},
	"auth.login":         {"config_path"},
	"auth.set-mode":      {"mode", "config_path"},
	"courses.list":       {"courses"},
	"assignments.due":    {"days", "assignments"},
	"assignment.show":    {"assignment"},
	"do":                 {"run_id", "state", "mode", "artifacts", "summary"},
	"plan":               {"plan"},
	"review":             {"run_id", "assignment_id", "confirm_token", "expires_at"},
	"submit":             {"replayed", "assignment_id", "file", "status", "run_id"},
	"runs.show":          {"run"},
	"runs.tail":          {"runs"},
	"feedback.add":       {"id"},
	"feedback.list":      {"feedback"},
	"metrics.summary":    {"total_runs", "success_runs", "failed_runs"},
	"init":               {"config_path", "templates"},
	"org.info":           {"school_name", "logo_url", "source"},
	"org.set":            {"config_path"},
	"org.probe":          {"winner", "reason", "school_name", "logo_url"},
}

// errorPayload builds the ok:false payload tools relay when the CLI could
// not produce a valid envelope itself. The stdout and stderr keys are
// always present so clients can log failures uniformly.
func errorPayload(code, message string, details map[string]any) map[string]any {
	d := map[string]any{"stdout": "", "stderr": ""}
	for k, v := range details {
		d[k] = v
	}
	return map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": d,
		},
	}
}

// validateEnvelope checks a parsed CLI payload against the envelope
// contract. It returns nil for a valid payload, or a ready-to-relay error
// payload naming the drift. Error envelopes carry no command field, so the
// CLI's own failures also land here, with the original payload preserved
// under details.
func validateEnvelope(payload map[string]any) map[string]any {
	command, ok := payload["command"].(string)
	if !ok {
		return errorPayload(codeSchemaValidation,
			"CLI JSON envelope missing required 'command' field.",
			map[string]any{"payload": payload})
	}

	required, registered := commandResultFields[command]
	if !registered {
		return errorPayload(codeSchemaValidation,
			fmt.Sprintf("No local schema registered for command '%s'.", command),
			map[string]any{"command": command})
	}

	if problem := envelopeProblem(payload, required); problem != "" {
		return errorPayload(codeSchemaValidation,
			"CLI JSON envelope failed schema validation.",
			map[string]any{"command": command, "validation_error": problem})
	}
	return nil
}

// envelopeProblem describes the first contract violation in the payload,
// or returns "" when the envelope is well formed.
func envelopeProblem(payload map[string]any, required []string) string {
	version, ok := payload["schema_version"].(string)
	if !ok {
		return "schema_version must be a string"
	}
	if version != canvasai.SchemaVersion {
		return fmt.Sprintf("schema_version %q does not match %q", version, canvasai.SchemaVersion)
	}
	if _, ok := payload["ok"].(bool); !ok {
		return "'ok' must be a boolean"
	}
	result, ok := payload["result"].(map[string]any)
	if !ok {
		return "result must be an object"
	}
	for _, field := range required {
		if _, ok := result[field]; !ok {
			return fmt.Sprintf("result missing required field %q", field)
		}
	}
	return ""
}
