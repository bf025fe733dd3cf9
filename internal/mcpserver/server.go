// Package mcpserver exposes the canvas-ai CLI to MCP clients. Every tool
// handler spawns the CLI binary in --json mode and relays its envelope, so
// the CLI remains the single enforcement point for policy, confirmation,
// and idempotency; this server adds no second code path around them.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	canvasai "github.com/canvasai/canvas-ai"
)

// ServerName identifies this server in the MCP handshake and in the
// mcp_version_info tool payload.
const ServerName = "canvas-ai-cli"

// New assembles the MCP server: one tool per CLI command plus two read-only
// resources over the run history. The server holds no state of its own.
func New(cli *Runner) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		canvasai.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	t := NewTools(cli)
	s.AddTool(t.VersionInfo())
	s.AddTool(t.Capabilities())
	s.AddTool(t.AuthStatus())
	s.AddTool(t.AuthSetMode())
	s.AddTool(t.AuthLogin())
	s.AddTool(t.Init())
	s.AddTool(t.CoursesList())
	s.AddTool(t.AssignmentsDue())
	s.AddTool(t.AssignmentShow())
	s.AddTool(t.Plan())
	s.AddTool(t.DoWorkflow())
	s.AddTool(t.Review())
	s.AddTool(t.Submit())
	s.AddTool(t.RunsShow())
	s.AddTool(t.RunsTail())
	s.AddTool(t.FeedbackAdd())
	s.AddTool(t.FeedbackList())
	s.AddTool(t.MetricsSummary())
	s.AddTool(t.OrgInfo())
	s.AddTool(t.OrgSet())
	s.AddTool(t.OrgProbe())

	r := NewResources(cli)
	s.AddResource(r.RunsLatest())
	s.AddResource(r.ArtifactsLatest())

	return s
}

func serverInstructions() string {
	return `You have access to canvas-ai, a Canvas LMS coursework assistant.

Read-only discovery (courses_list, assignments_due, assignment_show,
runs_show, runs_tail, metrics_summary, org_info) is always safe to call.

The do_workflow tool drafts coursework locally and never submits anything.
It is resumable: pass resume with a prior run id to continue an interrupted
workflow instead of starting a new one.

Submitting is a deliberate two-step protocol:
1. Call review(assignment_id) to get a short-lived confirm_token.
2. Call submit with that token, the assignment id, and the file path.
Tokens are single-use and expire quickly; a rejected or expired token means
you must run review again. Never ask the user for a token; only review
issues them. Pass dry_run=true to rehearse a submit without sending it.

Every tool returns the CLI's JSON envelope. When ok is false, read
error.code and error.message; CONFIRM_REQUIRED means the review step is
missing or stale, POLICY_VIOLATION means course policy forbids the action.`
}
