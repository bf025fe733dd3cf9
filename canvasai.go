// Package canvasai provides a minimal public API for embedding the
// assignment assistant in custom tooling.
//
// Most integrations should drive the canvas-ai CLI (or its MCP server)
// rather than link this module directly. This package exports only the
// version contract and the storage handle needed by Go programs that want
// to inspect local run history programmatically.
package canvasai

import (
	"context"

	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/storage/sqlite"
	"github.com/canvasai/canvas-ai/internal/types"
)

// Version is the CLI release version (overridden by ldflags at build time).
var Version = "0.5.0"

// Wire contract shared by the CLI JSON envelope and the MCP server.
const (
	SchemaVersion          = types.SchemaVersion
	FeatureContractVersion = types.FeatureContractVersion
)

// Core types for working with stored run history
type (
	Run              = types.Run
	RunMetadata      = types.RunMetadata
	RunState         = types.RunState
	Mode             = types.Mode
	SubmissionRecord = types.SubmissionRecord
	MetricsSummary   = types.MetricsSummary
)

// Workflow state constants
const (
	StateQueued    = types.StateQueued
	StatePlanning  = types.StatePlanning
	StateDrafting  = types.StateDrafting
	StateReviewing = types.StateReviewing
	StateReady     = types.StateReady
)

// Workflow mode constants
const (
	ModeTutor   = types.ModeTutor
	ModeOutline = types.ModeOutline
	ModeDraft   = types.ModeDraft
	ModePolish  = types.ModePolish
)

// Store provides the minimal interface for inspection tooling
type Store = storage.Store

// OpenStore opens a canvas-ai SQLite database for programmatic access.
// The caller owns the handle and must Close it. Most readers only need
// ListRuns, GetRun, and MetricsSummary.
func OpenStore(ctx context.Context, dbPath string) (Store, error) {
	return sqlite.New(ctx, dbPath)
}
