package mcpserver

import (
	"context"
	"encoding/json"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// previewLimit caps how much artifact content the artifacts resource
// inlines per file.
const previewLimit = 5000

// Resources serves read-only browsing endpoints over the run history.
// Like the tools, each read spawns the CLI and works from its envelope.
type Resources struct {
	cli invoker
}

// NewResources returns the resource set backed by the given CLI runner.
func NewResources(cli invoker) *Resources {
	return &Resources{cli: cli}
}

// RunsLatest serves the ten most recent run records.
func (r *Resources) RunsLatest() (mcp.Resource, server.ResourceHandlerFunc) {
	def := mcp.NewResource(
		"canvas-ai://runs/latest",
		"Latest runs",
		mcp.WithResourceDescription("Recent run records for IDE/agent browsing."),
		mcp.WithMIMEType("application/json"),
	)
	return def, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(req.Params.URI, r.cli.Invoke(ctx, "runs", "tail", "--limit", "10"))
	}
}

// ArtifactsLatest finds the newest workflow run and inlines a preview of
// each artifact file it recorded.
func (r *Resources) ArtifactsLatest() (mcp.Resource, server.ResourceHandlerFunc) {
	def := mcp.NewResource(
		"canvas-ai://artifacts/latest",
		"Latest artifacts",
		mcp.WithResourceDescription("Artifact paths and content previews for the newest do run."),
		mcp.WithMIMEType("application/json"),
	)
	return def, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		tail := r.cli.Invoke(ctx, "runs", "tail", "--limit", "20")
		if ok, _ := tail["ok"].(bool); !ok {
			return jsonContents(req.Params.URI, tail)
		}
		run := latestWorkflowRun(tail)
		if run == nil {
			return jsonContents(req.Params.URI, map[string]any{
				"ok":     true,
				"result": map[string]any{"artifacts": map[string]any{}, "run_id": nil},
			})
		}
		return jsonContents(req.Params.URI, map[string]any{
			"ok": true,
			"result": map[string]any{
				"run_id":    run["run_id"],
				"artifacts": artifactEntries(run),
			},
		})
	}
}

// latestWorkflowRun picks the newest run with command "do" out of a
// runs.tail envelope, or nil when none exists.
func latestWorkflowRun(tail map[string]any) map[string]any {
	result, _ := tail["result"].(map[string]any)
	runs, _ := result["runs"].([]any)
	for _, entry := range runs {
		if run, ok := entry.(map[string]any); ok && run["command"] == "do" {
			return run
		}
	}
	return nil
}

// artifactEntries builds path/exists/preview descriptors for every artifact
// the run names. Unreadable files keep exists=true with an empty preview
// rather than failing the whole read.
func artifactEntries(run map[string]any) map[string]any {
	out := map[string]any{}
	artifacts, _ := run["artifacts"].(map[string]any)
	for name, v := range artifacts {
		path, ok := v.(string)
		if !ok {
			continue
		}
		entry := map[string]any{"path": path, "exists": false, "preview": ""}
		if _, err := os.Stat(path); err == nil {
			entry["exists"] = true
			if data, err := os.ReadFile(path); err == nil {
				entry["preview"] = previewText(string(data))
			}
		}
		out[name] = entry
	}
	return out
}

func previewText(s string) string {
	runes := []rune(s)
	if len(runes) > previewLimit {
		runes = runes[:previewLimit]
	}
	return string(runes)
}

// jsonContents marshals the payload (map keys sort deterministically) as
// the single JSON text content of a resource read.
func jsonContents(uri string, payload map[string]any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}
