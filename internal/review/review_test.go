package review

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/canvasai/canvas-ai/internal/idgen"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/storage/sqlite"
	"github.com/canvasai/canvas-ai/internal/types"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *sqlite.SQLiteStore) {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store, opts...), store
}

func fixedClock(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}

func TestIssueMintsTokenAndAuditRun(t *testing.T) {
	issued := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, fixedClock(issued))
	ctx := context.Background()

	receipt, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !strings.HasPrefix(receipt.RunID, "run_") {
		t.Errorf("run id = %q", receipt.RunID)
	}
	if !strings.HasPrefix(receipt.ConfirmToken, "rvw_") {
		t.Errorf("token = %q", receipt.ConfirmToken)
	}
	if receipt.AssignmentID != 42 {
		t.Errorf("assignment id = %d", receipt.AssignmentID)
	}
	wantExpiry := issued.Add(DefaultTTL).Format(time.RFC3339)
	if receipt.ExpiresAt != wantExpiry {
		t.Errorf("expires_at = %q, want %q", receipt.ExpiresAt, wantExpiry)
	}

	run, err := store.GetRun(ctx, receipt.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Command != "review" || run.Status != types.RunStatusSucceeded || run.AssignmentID != 42 {
		t.Errorf("audit run = %+v", run)
	}
	if run.Metadata == nil || run.Metadata.ExpiresAt != wantExpiry {
		t.Errorf("run metadata = %+v", run.Metadata)
	}

	tok, err := store.GetReviewToken(ctx, idgen.TokenHash(receipt.ConfirmToken))
	if err != nil {
		t.Fatalf("GetReviewToken: %v", err)
	}
	if tok.RunID != receipt.RunID || tok.AssignmentID != 42 {
		t.Errorf("stored token = %+v", tok)
	}
	if tok.Consumed() {
		t.Error("fresh token marked consumed")
	}
	if !tok.ExpiresAt.Equal(issued.Add(DefaultTTL)) {
		t.Errorf("stored expiry = %v", tok.ExpiresAt)
	}
}

func TestIssueTokenIsSingleUse(t *testing.T) {
	issued := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, fixedClock(issued))
	ctx := context.Background()

	receipt, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	hash := idgen.TokenHash(receipt.ConfirmToken)

	if _, err := store.ConsumeReviewToken(ctx, hash, 42, issued.Add(time.Minute)); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	_, err = store.ConsumeReviewToken(ctx, hash, 42, issued.Add(2*time.Minute))
	if !errors.Is(err, storage.ErrTokenConsumed) {
		t.Errorf("second consume error = %v, want ErrTokenConsumed", err)
	}
}

func TestIssueHonorsTTLOption(t *testing.T) {
	issued := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, fixedClock(issued), WithTTL(5*time.Minute))
	ctx := context.Background()

	receipt, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := issued.Add(5 * time.Minute).Format(time.RFC3339); receipt.ExpiresAt != want {
		t.Errorf("expires_at = %q, want %q", receipt.ExpiresAt, want)
	}

	// Past the shortened TTL the token no longer validates.
	hash := idgen.TokenHash(receipt.ConfirmToken)
	_, err = store.ConsumeReviewToken(ctx, hash, 42, issued.Add(6*time.Minute))
	if !errors.Is(err, storage.ErrTokenExpired) {
		t.Errorf("consume after TTL error = %v, want ErrTokenExpired", err)
	}
}

func TestIssueTokensAreUnique(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	second, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("second Issue: %v", err)
	}
	if first.ConfirmToken == second.ConfirmToken {
		t.Error("two issues produced the same token")
	}
	if first.RunID == second.RunID {
		t.Error("two issues produced the same run id")
	}
}
