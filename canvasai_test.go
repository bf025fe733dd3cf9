package canvasai_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	canvasai "github.com/canvasai/canvas-ai"
)

func TestOpenStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "canvas-ai.db")

	ctx := context.Background()
	store, err := canvasai.OpenStore(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	if store == nil {
		t.Error("expected non-nil store")
	}
}

func TestOpenStoreRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "canvas-ai.db")

	ctx := context.Background()
	store, err := canvasai.OpenStore(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	run := &canvasai.Run{
		ID:           "run-public-api",
		Command:      "review",
		AssignmentID: 42,
		Status:       "succeeded",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run-public-api")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Command != "review" || got.AssignmentID != 42 {
		t.Errorf("GetRun returned %+v, want command review for assignment 42", got)
	}
}

// Test that exported constants have correct values
func TestConstants(t *testing.T) {
	if canvasai.SchemaVersion != "v5" {
		t.Errorf("SchemaVersion = %q, want %q", canvasai.SchemaVersion, "v5")
	}
	if canvasai.FeatureContractVersion != "2026-02-v1" {
		t.Errorf("FeatureContractVersion = %q, want %q", canvasai.FeatureContractVersion, "2026-02-v1")
	}

	// Workflow state constants
	if canvasai.StateQueued != "queued" {
		t.Errorf("StateQueued = %q, want %q", canvasai.StateQueued, "queued")
	}
	if canvasai.StatePlanning != "planning" {
		t.Errorf("StatePlanning = %q, want %q", canvasai.StatePlanning, "planning")
	}
	if canvasai.StateDrafting != "drafting" {
		t.Errorf("StateDrafting = %q, want %q", canvasai.StateDrafting, "drafting")
	}
	if canvasai.StateReviewing != "reviewing" {
		t.Errorf("StateReviewing = %q, want %q", canvasai.StateReviewing, "reviewing")
	}
	if canvasai.StateReady != "ready" {
		t.Errorf("StateReady = %q, want %q", canvasai.StateReady, "ready")
	}

	// Mode constants
	if canvasai.ModeTutor != "tutor" {
		t.Errorf("ModeTutor = %q, want %q", canvasai.ModeTutor, "tutor")
	}
	if canvasai.ModeOutline != "outline" {
		t.Errorf("ModeOutline = %q, want %q", canvasai.ModeOutline, "outline")
	}
	if canvasai.ModeDraft != "draft" {
		t.Errorf("ModeDraft = %q, want %q", canvasai.ModeDraft, "draft")
	}
	if canvasai.ModePolish != "polish" {
		t.Errorf("ModePolish = %q, want %q", canvasai.ModePolish, "polish")
	}
}

func TestVersionNotEmpty(t *testing.T) {
	if canvasai.Version == "" {
		t.Error("Version must not be empty")
	}
}
