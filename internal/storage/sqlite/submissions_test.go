package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

func TestGetSubmissionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSubmission(context.Background(), "submit:42:/tmp/essay.md")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSubmission() error = %v, want ErrNotFound", err)
	}
}

func TestRecordSubmissionFirstWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &types.SubmissionRecord{
		IdempotencyKey: "submit:42:/tmp/essay.md",
		RunID:          "run_abc",
		AssignmentID:   42,
		FilePath:       "/tmp/essay.md",
		Result:         json.RawMessage(`{"status":"stubbed","submission_id":"sub_1"}`),
		CreatedAt:      time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC),
	}
	stored, created, err := store.RecordSubmission(ctx, first)
	if err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if !created {
		t.Error("first RecordSubmission() should report created=true")
	}
	if !bytes.Equal(stored.Result, first.Result) {
		t.Errorf("stored result = %s, want %s", stored.Result, first.Result)
	}

	// A second attempt under the same key returns the original bytes and
	// writes nothing, even when the caller offers a different result.
	second := &types.SubmissionRecord{
		IdempotencyKey: first.IdempotencyKey,
		RunID:          "run_other",
		AssignmentID:   42,
		FilePath:       "/tmp/essay.md",
		Result:         json.RawMessage(`{"status":"stubbed","submission_id":"sub_2"}`),
	}
	stored, created, err = store.RecordSubmission(ctx, second)
	if err != nil {
		t.Fatalf("replay RecordSubmission() error = %v", err)
	}
	if created {
		t.Error("replay RecordSubmission() should report created=false")
	}
	if !bytes.Equal(stored.Result, first.Result) {
		t.Errorf("replay returned %s, want original %s", stored.Result, first.Result)
	}
	if stored.RunID != "run_abc" {
		t.Errorf("replay RunID = %q, want original run_abc", stored.RunID)
	}

	got, err := store.GetSubmission(ctx, first.IdempotencyKey)
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if !bytes.Equal(got.Result, first.Result) {
		t.Errorf("ledger result = %s, want %s", got.Result, first.Result)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("ledger CreatedAt = %v, want %v", got.CreatedAt, first.CreatedAt)
	}
}
