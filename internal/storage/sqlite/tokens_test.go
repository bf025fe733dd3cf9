package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

func issueTestToken(t *testing.T, store *SQLiteStore, hash string, assignmentID int64, issued time.Time, ttl time.Duration) {
	t.Helper()
	err := store.CreateReviewToken(context.Background(), &types.ReviewToken{
		TokenHash:    hash,
		RunID:        "run_review_" + hash,
		AssignmentID: assignmentID,
		IssuedAt:     issued,
		ExpiresAt:    issued.Add(ttl),
	})
	if err != nil {
		t.Fatalf("CreateReviewToken() error = %v", err)
	}
}

func TestConsumeReviewToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	issued := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	issueTestToken(t, store, "hash1", 42, issued, 15*time.Minute)

	now := issued.Add(5 * time.Minute)
	tok, err := store.ConsumeReviewToken(ctx, "hash1", 42, now)
	if err != nil {
		t.Fatalf("ConsumeReviewToken() error = %v", err)
	}
	if tok.ConsumedAt == nil || !tok.ConsumedAt.Equal(now) {
		t.Errorf("ConsumedAt = %v, want %v", tok.ConsumedAt, now)
	}

	// The row is marked consumed, not deleted.
	stored, err := store.GetReviewToken(ctx, "hash1")
	if err != nil {
		t.Fatalf("GetReviewToken() error = %v", err)
	}
	if !stored.Consumed() {
		t.Error("stored token should be marked consumed")
	}
}

func TestConsumeReviewTokenNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ConsumeReviewToken(context.Background(), "hash_missing", 42, time.Now())
	if !errors.Is(err, storage.ErrTokenNotFound) {
		t.Errorf("error = %v, want ErrTokenNotFound", err)
	}
}

func TestConsumeReviewTokenExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	issued := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	issueTestToken(t, store, "hash_exp", 42, issued, 15*time.Minute)

	// Exactly at expires_at counts as expired.
	_, err := store.ConsumeReviewToken(ctx, "hash_exp", 42, issued.Add(15*time.Minute))
	if !errors.Is(err, storage.ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}

	// Expired rows stay queryable and unconsumed.
	stored, err := store.GetReviewToken(ctx, "hash_exp")
	if err != nil {
		t.Fatalf("GetReviewToken() after expiry error = %v", err)
	}
	if stored.Consumed() {
		t.Error("failed consume must not mark the token consumed")
	}
}

func TestConsumeReviewTokenAlreadyConsumed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	issued := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	issueTestToken(t, store, "hash_once", 42, issued, 15*time.Minute)

	now := issued.Add(time.Minute)
	if _, err := store.ConsumeReviewToken(ctx, "hash_once", 42, now); err != nil {
		t.Fatalf("first consume error = %v", err)
	}
	_, err := store.ConsumeReviewToken(ctx, "hash_once", 42, now.Add(time.Minute))
	if !errors.Is(err, storage.ErrTokenConsumed) {
		t.Errorf("second consume error = %v, want ErrTokenConsumed", err)
	}
}

func TestConsumeReviewTokenAssignmentMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	issued := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	issueTestToken(t, store, "hash_bind", 42, issued, 15*time.Minute)

	_, err := store.ConsumeReviewToken(ctx, "hash_bind", 99, issued.Add(time.Minute))
	if !errors.Is(err, storage.ErrTokenRunMismatch) {
		t.Errorf("error = %v, want ErrTokenRunMismatch", err)
	}

	// A failed binding check leaves the token spendable for the reviewed
	// assignment.
	if _, err := store.ConsumeReviewToken(ctx, "hash_bind", 42, issued.Add(2*time.Minute)); err != nil {
		t.Errorf("consume for reviewed assignment after mismatch error = %v", err)
	}
}

func TestConsumeReviewTokenExpiryCheckedFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	issued := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	issueTestToken(t, store, "hash_order", 42, issued, 15*time.Minute)

	// Expired and issued for a different assignment: expiry wins.
	_, err := store.ConsumeReviewToken(ctx, "hash_order", 99, issued.Add(time.Hour))
	if !errors.Is(err, storage.ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired to take precedence", err)
	}
}
