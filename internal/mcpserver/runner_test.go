package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	canvasai "github.com/canvasai/canvas-ai"
)

func fakeRunner(stdout, stderr string, exitCode int, err error) (*Runner, *[][]string) {
	var calls [][]string
	r := &Runner{run: func(ctx context.Context, argv []string) (string, string, int, error) {
		calls = append(calls, argv)
		return stdout, stderr, exitCode, err
	}}
	return r, &calls
}

func marshalEnvelope(t *testing.T, payload map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(raw)
}

func TestInvokePrependsJSONFlag(t *testing.T) {
	r, calls := fakeRunner(marshalEnvelope(t, validSubmitEnvelope()), "", 0, nil)
	r.Invoke(context.Background(), "submit", "42", "--file", "essay.md")

	require.Len(t, *calls, 1)
	argv := (*calls)[0]
	assert.Equal(t, Binary(), argv[0])
	assert.Equal(t, "--json", argv[1])
	assert.Equal(t, []string{"submit", "42", "--file", "essay.md"}, argv[2:])
}

func TestInvokeRelaysValidEnvelope(t *testing.T) {
	r, _ := fakeRunner(marshalEnvelope(t, validSubmitEnvelope()), "", 0, nil)
	out := r.Invoke(context.Background(), "submit", "42")

	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "submit", out["command"])
}

func TestInvokeBinaryMissing(t *testing.T) {
	r, _ := fakeRunner("", "", 0, errors.New("exec: not found"))
	out := r.Invoke(context.Background(), "courses", "list")

	errObj := out["error"].(map[string]any)
	assert.Equal(t, codeBinaryMissing, errObj["code"])
	assert.Contains(t, errObj["message"], "not installed or not on PATH")
}

func TestInvokeEmptyStdout(t *testing.T) {
	r, _ := fakeRunner("", "panic: boom", 2, nil)
	out := r.Invoke(context.Background(), "courses", "list")

	errObj := out["error"].(map[string]any)
	assert.Equal(t, codeInternal, errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "panic: boom", details["stderr"])
	assert.Equal(t, 2, details["exit_code"])
}

func TestInvokeRejectsDriftedEnvelope(t *testing.T) {
	payload := validSubmitEnvelope()
	payload["schema_version"] = "v999"
	r, _ := fakeRunner(marshalEnvelope(t, payload), "", 0, nil)

	out := r.Invoke(context.Background(), "submit", "42")
	errObj := out["error"].(map[string]any)
	assert.Equal(t, codeSchemaValidation, errObj["code"])
}

func TestParseEnvelope(t *testing.T) {
	envelope := `{"ok":true,"command":"courses.list","result":{"courses":[]},"schema_version":"` +
		canvasai.SchemaVersion + `"}`

	tests := []struct {
		name   string
		stdout string
		want   bool
	}{
		{"whole output", envelope, true},
		{"envelope after noise", "warning: slow disk\nanother line\n" + envelope, true},
		{"envelope before trailing blank lines", envelope + "\n\n", true},
		{"no json at all", "plain text only", false},
		{"json array not object", `[1,2,3]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEnvelope(tt.stdout)
			if tt.want {
				require.NotNil(t, got)
				assert.Equal(t, "courses.list", got["command"])
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestBinaryHonorsOverride(t *testing.T) {
	t.Setenv("CANVAS_AI_BIN", "/opt/custom/canvas-ai")
	assert.Equal(t, "/opt/custom/canvas-ai", Binary())

	t.Setenv("CANVAS_AI_BIN", "")
	assert.Equal(t, DefaultBinary, Binary())
}
