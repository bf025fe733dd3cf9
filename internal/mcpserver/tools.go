package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	canvasai "github.com/canvasai/canvas-ai"
)

// invoker abstracts the CLI subprocess so tool tests can substitute canned
// envelopes. *Runner is the production implementation.
type invoker interface {
	Invoke(ctx context.Context, args ...string) map[string]any
}

// Tools exposes each canvas-ai command as an MCP tool. Handlers are thin
// argv builders; validation and the submit guardrails live in the CLI
// itself, so an agent bypassing this server gains nothing.
type Tools struct {
	cli invoker
}

// NewTools returns the tool set backed by the given CLI runner.
func NewTools(cli invoker) *Tools {
	return &Tools{cli: cli}
}

// VersionInfo answers the handshake tool without spawning the CLI.
func (t *Tools) VersionInfo() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("mcp_version_info",
		mcp.WithDescription("Return handshake metadata for CLI/MCP/schema compatibility."),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{
			"ok":                       true,
			"mcp_server":               ServerName,
			"cli_version":              canvasai.Version,
			"schema_version":           canvasai.SchemaVersion,
			"feature_contract_version": canvasai.FeatureContractVersion,
		})
	}
}

// Capabilities relays the command risk/confirmation matrix.
func (t *Tools) Capabilities() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("capabilities",
		mcp.WithDescription("Return command metadata and risk/confirmation information from canvas-ai."),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(t.cli.Invoke(ctx, "agent", "capabilities"))
	}
}

// AuthStatus reads auth mode and token/base-url status.
func (t *Tools) AuthStatus() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("auth_status",
		mcp.WithDescription("Read auth mode and token/base-url status."),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(t.cli.Invoke(ctx, "auth", "status"))
	}
}

// AuthSetMode switches between token and oauth_placeholder auth. The
// allowlist is enforced here as well as in the CLI so a typo never spawns
// a subprocess.
func (t *Tools) AuthSetMode() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("auth_set_mode",
		mcp.WithDescription("Set auth mode using explicit allowlisted values."),
		mcp.WithString("mode", mcp.Required(),
			mcp.Description("Auth mode to use."),
			mcp.Enum("token", "oauth_placeholder")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mode, err := req.RequireString("mode")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if mode != "token" && mode != "oauth_placeholder" {
			return jsonResult(errorPayload(codeValidation,
				"mode must be one of: token, oauth_placeholder",
				map[string]any{"mode": mode}))
		}
		return jsonResult(t.cli.Invoke(ctx, "auth", "set-mode", mode))
	}
}

// AuthLogin stores a Canvas API token.
func (t *Tools) AuthLogin() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("auth_login",
		mcp.WithDescription("Set API token (safe argv wrapper; no shell interpolation)."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Canvas API token to store.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, err := req.RequireString("token")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t.cli.Invoke(ctx, "auth", "login", "--token", token))
	}
}

// Init creates local config without ever prompting.
func (t *Tools) Init() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("init",
		mcp.WithDescription("Initialize local config safely for CLI and MCP use."),
		mcp.WithString("base_url", mcp.Description("Canvas base URL, e.g. https://school.instructure.com.")),
		mcp.WithString("token", mcp.Description("Canvas API token.")),
		mcp.WithBoolean("write_templates", mcp.DefaultBool(true),
			mcp.Description("Write policy and mode template files.")),
		mcp.WithBoolean("non_interactive", mcp.DefaultBool(true),
			mcp.Description("Never prompt. Required when driven by an agent.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := []string{"init"}
		if v := req.GetString("base_url", ""); v != "" {
			args = append(args, "--base-url", v)
		}
		if v := req.GetString("token", ""); v != "" {
			args = append(args, "--token", v)
		}
		if req.GetBool("write_templates", true) {
			args = append(args, "--write-templates")
		} else {
			args = append(args, "--no-write-templates")
		}
		if req.GetBool("non_interactive", true) {
			args = append(args, "--non-interactive")
		}
		return jsonResult(t.cli.Invoke(ctx, args...))
	}
}

// CoursesList lists Canvas courses for the current token.
func (t *Tools) CoursesList() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("courses_list",
		mcp.WithDescription("List Canvas courses available to the current token."),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(t.cli.Invoke(ctx, "courses", "list"))
	}
}

// AssignmentsDue lists assignments due inside a day window.
func (t *Tools) AssignmentsDue() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("assignments_due",
		mcp.WithDescription("List upcoming assignments due within N days."),
		mcp.WithNumber("days", mcp.DefaultNumber(14), mcp.Description("Due window in days.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		days := req.GetInt("days", 14)
		return jsonResult(t.cli.Invoke(ctx, "assignments", "due", "--days", strconv.Itoa(days)))
	}
}

// AssignmentShow fetches one assignment by id.
func (t *Tools) AssignmentShow() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("assignment_show",
		mcp.WithDescription("Get assignment details by id."),
		mcp.WithNumber("assignment_id", mcp.Required(), mcp.Description("Canvas assignment id.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("assignment_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t.cli.Invoke(ctx, "assignment", "show", strconv.Itoa(id)))
	}
}

// Plan generates and persists a step plan for an assignment.
func (t *Tools) Plan() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("plan",
		mcp.WithDescription("Generate assignment plan with persisted plan_id."),
		mcp.WithNumber("assignment_id", mcp.Required(), mcp.Description("Canvas assignment id.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("assignment_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t.cli.Invoke(ctx, "plan", strconv.Itoa(id)))
	}
}

// DoWorkflow runs the artifact-producing workflow. It never submits.
func (t *Tools) DoWorkflow() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("do_workflow",
		mcp.WithDescription("Run the non-submitting do workflow and return artifacts metadata."),
		mcp.WithNumber("assignment_id", mcp.Required(), mcp.Description("Canvas assignment id.")),
		mcp.WithString("mode", mcp.Required(),
			mcp.Description("Workflow mode."),
			mcp.Enum("tutor", "outline", "draft", "polish")),
		mcp.WithString("goal", mcp.Description("Optional intent goal recorded with the run.")),
		mcp.WithString("resume", mcp.Description("Existing do run_id to resume.")),
		mcp.WithString("input_file", mcp.Description("Student-provided input text file, used by polish mode.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("assignment_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mode, err := req.RequireString("mode")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args := []string{"do", strconv.Itoa(id), "--mode", mode}
		if v := req.GetString("goal", ""); v != "" {
			args = append(args, "--goal", v)
		}
		if v := req.GetString("resume", ""); v != "" {
			args = append(args, "--resume", v)
		}
		if v := req.GetString("input_file", ""); v != "" {
			args = append(args, "--input-file", v)
		}
		return jsonResult(t.cli.Invoke(ctx, args...))
	}
}

// Review mints a short-lived confirmation token for the guarded submit.
func (t *Tools) Review() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("review",
		mcp.WithDescription("Create a short-lived confirmation token for guarded submit."),
		mcp.WithNumber("assignment_id", mcp.Required(), mcp.Description("Canvas assignment id.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("assignment_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t.cli.Invoke(ctx, "review", strconv.Itoa(id)))
	}
}

// Submit relays the guarded submit. --confirm is always passed: the real
// guard is the single-use confirm_token, which only a review call mints.
func (t *Tools) Submit() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("submit",
		mcp.WithDescription("Guarded submit command. Requires explicit token and sets --confirm always."),
		mcp.WithNumber("assignment_id", mcp.Required(), mcp.Description("Canvas assignment id.")),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("File to submit.")),
		mcp.WithString("confirm_token", mcp.Required(),
			mcp.Description("Short-lived token from a fresh review call.")),
		mcp.WithString("idempotency_key", mcp.Description("Explicit replay key; defaults to assignment plus file path.")),
		mcp.WithBoolean("dry_run", mcp.DefaultBool(false),
			mcp.Description("Exercise the full gate without sending anything.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("assignment_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filePath, err := req.RequireString("file_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		confirmToken, err := req.RequireString("confirm_token")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args := []string{
			"submit", strconv.Itoa(id),
			"--file", filePath,
			"--confirm",
			"--confirm-token", confirmToken,
		}
		if v := req.GetString("idempotency_key", ""); v != "" {
			args = append(args, "--idempotency-key", v)
		}
		if req.GetBool("dry_run", false) {
			args = append(args, "--dry-run")
		}
		return jsonResult(t.cli.Invoke(ctx, args...))
	}
}

// RunsShow fetches full metadata for one stored run.
func (t *Tools) RunsShow() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("runs_show",
		mcp.WithDescription("Fetch full metadata for a stored run id."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id, e.g. run-1a2b3c4d.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := req.RequireString("run_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t.cli.Invoke(ctx, "runs", "show", runID))
	}
}

// RunsTail lists recent run history.
func (t *Tools) RunsTail() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("runs_tail",
		mcp.WithDescription("List recent run history."),
		mcp.WithNumber("limit", mcp.DefaultNumber(10), mcp.Description("Number of runs to return, newest first.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		return jsonResult(t.cli.Invoke(ctx, "runs", "tail", "--limit", strconv.Itoa(limit)))
	}
}

// FeedbackAdd stores an instructor feedback hint.
func (t *Tools) FeedbackAdd() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("feedback_add",
		mcp.WithDescription("Persist feedback hints for future do workflow optimization."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Feedback text.")),
		mcp.WithNumber("course_id", mcp.Description("Scope the hint to a course.")),
		mcp.WithNumber("assignment_id", mcp.Description("Scope the hint to an assignment.")),
		mcp.WithString("source", mcp.Description("Where the feedback came from, e.g. instructor.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args := []string{"feedback", "add", "--text", text}
		if id, ok := optionalInt(req, "course_id"); ok {
			args = append(args, "--course-id", strconv.FormatInt(id, 10))
		}
		if id, ok := optionalInt(req, "assignment_id"); ok {
			args = append(args, "--assignment-id", strconv.FormatInt(id, 10))
		}
		if v := req.GetString("source", ""); v != "" {
			args = append(args, "--source", v)
		}
		return jsonResult(t.cli.Invoke(ctx, args...))
	}
}

// FeedbackList lists stored feedback hints.
func (t *Tools) FeedbackList() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("feedback_list",
		mcp.WithDescription("List stored feedback hints."),
		mcp.WithNumber("course_id", mcp.Description("Filter by course.")),
		mcp.WithNumber("assignment_id", mcp.Description("Filter by assignment.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := []string{"feedback", "list"}
		if id, ok := optionalInt(req, "course_id"); ok {
			args = append(args, "--course-id", strconv.FormatInt(id, 10))
		}
		if id, ok := optionalInt(req, "assignment_id"); ok {
			args = append(args, "--assignment-id", strconv.FormatInt(id, 10))
		}
		return jsonResult(t.cli.Invoke(ctx, args...))
	}
}

// MetricsSummary summarizes local run metrics.
func (t *Tools) MetricsSummary() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("metrics_summary",
		mcp.WithDescription("Summarize local run metrics and success/failure counts."),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(t.cli.Invoke(ctx, "metrics", "summary"))
	}
}

// OrgInfo reads the resolved school branding.
func (t *Tools) OrgInfo() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("org_info",
		mcp.WithDescription("Read resolved org/school branding info."),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(t.cli.Invoke(ctx, "org", "info"))
	}
}

// OrgSet writes branding overrides. At least one field is required, and an
// empty string is a deliberate value, not an omission.
func (t *Tools) OrgSet() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("org_set",
		mcp.WithDescription("Set org branding overrides safely via argv construction."),
		mcp.WithString("school_name", mcp.Description("Display name override.")),
		mcp.WithString("logo_url", mcp.Description("Logo URL override.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		school, hasSchool := optionalString(req, "school_name")
		logo, hasLogo := optionalString(req, "logo_url")
		if !hasSchool && !hasLogo {
			return jsonResult(errorPayload(codeValidation,
				"Provide school_name and/or logo_url", nil))
		}
		args := []string{"org", "set"}
		if hasSchool {
			args = append(args, "--school-name", school)
		}
		if hasLogo {
			args = append(args, "--logo-url", logo)
		}
		return jsonResult(t.cli.Invoke(ctx, args...))
	}
}

// OrgProbe reports the branding source fallback path.
func (t *Tools) OrgProbe() (mcp.Tool, server.ToolHandlerFunc) {
	def := mcp.NewTool("org_probe",
		mcp.WithDescription("Inspect org metadata source fallback path."),
		mcp.WithBoolean("verbose", mcp.DefaultBool(false),
			mcp.Description("Include per-source attempt details.")),
	)
	return def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := []string{"org", "probe"}
		if req.GetBool("verbose", false) {
			args = append(args, "--verbose")
		}
		return jsonResult(t.cli.Invoke(ctx, args...))
	}
}

// jsonResult renders a payload as the tool's text content. encoding/json
// sorts map keys, so output is deterministic for clients that diff
// results.
func jsonResult(payload map[string]any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling tool payload: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// optionalInt reads an integer argument, reporting presence so zero values
// still pass through. An explicit JSON null counts as absent.
func optionalInt(req mcp.CallToolRequest, key string) (int64, bool) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// optionalString reads a string argument, distinguishing "" from absent.
func optionalString(req mcp.CallToolRequest, key string) (string, bool) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
