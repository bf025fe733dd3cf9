package workflow

import (
	"testing"
	"time"

	"github.com/canvasai/canvas-ai/internal/canvas"
)

func TestDeriveScheduleBlocks(t *testing.T) {
	due := time.Date(2026, 3, 20, 23, 59, 0, 0, time.UTC)
	blocks := DeriveScheduleBlocks(&canvas.Assignment{Name: "Essay 1", DueAt: &due})

	if len(blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(blocks))
	}

	wantLabels := []string{"Research", "Draft", "Revise", "Final QA"}
	wantStarts := []string{
		"2026-03-15T21:59:00Z", // due - 5d - 2h
		"2026-03-17T21:59:00Z", // due - 3d - 2h
		"2026-03-19T21:59:00Z", // due - 1d - 2h
		"2026-03-20T21:59:00Z", // due - 2h
	}
	for i, b := range blocks {
		if b.Label != wantLabels[i] {
			t.Errorf("block %d label = %q, want %q", i, b.Label, wantLabels[i])
		}
		if b.Start != wantStarts[i] {
			t.Errorf("block %d start = %q, want %q", i, b.Start, wantStarts[i])
		}
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			t.Fatalf("block %d start unparseable: %v", i, err)
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			t.Fatalf("block %d end unparseable: %v", i, err)
		}
		if end.Sub(start) != time.Hour {
			t.Errorf("block %d duration = %v, want 1h", i, end.Sub(start))
		}
	}
}

func TestDeriveScheduleBlocksNoDueDate(t *testing.T) {
	if got := DeriveScheduleBlocks(&canvas.Assignment{Name: "Essay 1"}); got != nil {
		t.Errorf("expected nil blocks without a due date, got %v", got)
	}
	if got := DeriveScheduleBlocks(nil); got != nil {
		t.Errorf("expected nil blocks for nil assignment, got %v", got)
	}
}

func TestDeriveScheduleBlocksNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	due := time.Date(2026, 3, 20, 18, 59, 0, 0, loc) // 23:59 UTC
	blocks := DeriveScheduleBlocks(&canvas.Assignment{DueAt: &due})

	if blocks[3].Start != "2026-03-20T21:59:00Z" {
		t.Errorf("final QA start = %q, want UTC-normalized value", blocks[3].Start)
	}
}
