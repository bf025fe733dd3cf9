package submit

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/idgen"
	"github.com/canvasai/canvas-ai/internal/policy"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/storage/sqlite"
	"github.com/canvasai/canvas-ai/internal/types"
)

type stubWriter struct {
	calls int
	err   error
}

func (w *stubWriter) SubmitAssignment(ctx context.Context, assignmentID int64, filePath string) (*canvas.SubmissionStub, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	return &canvas.SubmissionStub{
		Status:       "stubbed",
		AssignmentID: assignmentID,
		File:         filePath,
		Message:      "Submission flow placeholder. Human-confirmed execution only.",
	}, nil
}

var gateEpoch = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newGateFixtures(t *testing.T) (*sqlite.SQLiteStore, *stubWriter) {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, &stubWriter{}
}

// seedToken issues a token directly into the store and returns its raw value.
func seedToken(t *testing.T, store storage.Store, assignmentID int64, issued time.Time, ttl time.Duration) string {
	t.Helper()
	token := idgen.ReviewToken()
	err := store.CreateReviewToken(context.Background(), &types.ReviewToken{
		TokenHash:    idgen.TokenHash(token),
		RunID:        idgen.RunID(),
		AssignmentID: assignmentID,
		IssuedAt:     issued,
		ExpiresAt:    issued.Add(ttl),
	})
	if err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return token
}

func fixedAt(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}

func baseRequest(file, token string) Request {
	return Request{
		AssignmentID: 42,
		CourseID:     7,
		File:         file,
		Confirm:      true,
		ConfirmToken: token,
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func intPtr(v int) *int { return &v }

func TestSubmitRequiresConfirmFlag(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)))

	req := baseRequest("/tmp/essay.md", token)
	req.Confirm = false
	_, err := gate.Submit(ctx, req)
	ce, ok := types.AsCLIError(err)
	if !ok || ce.Code != types.CodeConfirmRequired {
		t.Fatalf("expected CONFIRM_REQUIRED, got %v", err)
	}
	if ce.Message != "Refusing to submit without explicit --confirm." {
		t.Errorf("message = %q", ce.Message)
	}

	// Nothing happened: no write, no run, token untouched.
	if writer.calls != 0 {
		t.Errorf("writer called %d times", writer.calls)
	}
	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("refusal created %d runs", len(runs))
	}
	tok, err := store.GetReviewToken(ctx, idgen.TokenHash(token))
	if err != nil {
		t.Fatal(err)
	}
	if tok.Consumed() {
		t.Error("refusal consumed the token")
	}
}

func TestSubmitRequiresTokenValue(t *testing.T) {
	store, writer := newGateFixtures(t)
	gate := NewGate(store, writer, fixedAt(gateEpoch))

	for _, tokenValue := range []string{"", "   "} {
		req := baseRequest("/tmp/essay.md", tokenValue)
		_, err := gate.Submit(context.Background(), req)
		ce, ok := types.AsCLIError(err)
		if !ok || ce.Code != types.CodeConfirmRequired {
			t.Fatalf("token %q: expected CONFIRM_REQUIRED, got %v", tokenValue, err)
		}
		if ce.Message != "Missing or invalid --confirm-token. Run review first." {
			t.Errorf("token %q: message = %q", tokenValue, ce.Message)
		}
	}
	if writer.calls != 0 {
		t.Errorf("writer called %d times", writer.calls)
	}
}

func TestSubmitHappyPath(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)))

	file := filepath.Join(t.TempDir(), "essay.md")
	out, err := gate.Submit(ctx, baseRequest(file, token))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Replayed {
		t.Error("fresh submission marked replayed")
	}
	if out.Key != DefaultKey(42, file) {
		t.Errorf("key = %q", out.Key)
	}
	if out.Result["status"] != "stubbed" || out.Result["file"] != file {
		t.Errorf("result = %v", out.Result)
	}
	if writer.calls != 1 {
		t.Errorf("writer calls = %d", writer.calls)
	}

	runID, _ := out.Result["run_id"].(string)
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Command != "submit" || run.Status != types.RunStatusSucceeded {
		t.Errorf("run = %+v", run)
	}
	if run.Metadata == nil || run.Metadata.File != file || run.Metadata.DryRun {
		t.Errorf("run metadata = %+v", run.Metadata)
	}

	tok, err := store.GetReviewToken(ctx, idgen.TokenHash(token))
	if err != nil {
		t.Fatal(err)
	}
	if !tok.Consumed() {
		t.Error("successful submit left the token unconsumed")
	}

	rec, err := store.GetSubmission(ctx, out.Key)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if rec.RunID != runID || rec.AssignmentID != 42 {
		t.Errorf("ledger record = %+v", rec)
	}
}

func TestSubmitReplayReturnsStoredResult(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)))

	file := filepath.Join(t.TempDir(), "essay.md")
	first, err := gate.Submit(ctx, baseRequest(file, token))
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// Same key again; the token is now consumed but replay wins first.
	second, err := gate.Submit(ctx, baseRequest(file, token))
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if !second.Replayed {
		t.Error("second submission not marked replayed")
	}
	if mustJSON(t, first.Result) != mustJSON(t, second.Result) {
		t.Errorf("replay result differs:\nfirst:  %v\nsecond: %v", first.Result, second.Result)
	}
	if writer.calls != 1 {
		t.Errorf("writer calls = %d, want 1", writer.calls)
	}
	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("replay created extra runs: %d", len(runs))
	}
}

func TestSubmitReplayShortCircuitsTokenValidation(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)))

	file := filepath.Join(t.TempDir(), "essay.md")
	if _, err := gate.Submit(ctx, baseRequest(file, token)); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// A bogus token on a completed key still replays.
	out, err := gate.Submit(ctx, baseRequest(file, "rvw_bogus"))
	if err != nil {
		t.Fatalf("replay with bogus token: %v", err)
	}
	if !out.Replayed {
		t.Error("expected replay")
	}
}

func TestSubmitUnknownTokenRefused(t *testing.T) {
	store, writer := newGateFixtures(t)
	gate := NewGate(store, writer, fixedAt(gateEpoch))

	_, err := gate.Submit(context.Background(), baseRequest("/tmp/essay.md", "rvw_never_issued"))
	ce, ok := types.AsCLIError(err)
	if !ok || ce.Code != types.CodeConfirmRequired {
		t.Fatalf("expected CONFIRM_REQUIRED, got %v", err)
	}
	if writer.calls != 0 {
		t.Errorf("writer calls = %d", writer.calls)
	}
}

func TestSubmitExpiredTokenRefusedAndPreserved(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 10*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(11*time.Minute)))

	_, err := gate.Submit(ctx, baseRequest("/tmp/essay.md", token))
	ce, ok := types.AsCLIError(err)
	if !ok || ce.Code != types.CodeConfirmRequired {
		t.Fatalf("expected CONFIRM_REQUIRED, got %v", err)
	}

	// The expired record stays, unconsumed, for traceability.
	tok, err := store.GetReviewToken(ctx, idgen.TokenHash(token))
	if err != nil {
		t.Fatalf("expired token no longer queryable: %v", err)
	}
	if tok.Consumed() {
		t.Error("expired token was marked consumed")
	}
}

func TestSubmitConsumedTokenRefused(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	if _, err := store.ConsumeReviewToken(ctx, idgen.TokenHash(token), 42, gateEpoch.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(2*time.Minute)))

	_, err := gate.Submit(ctx, baseRequest("/tmp/essay.md", token))
	if ce, ok := types.AsCLIError(err); !ok || ce.Code != types.CodeConfirmRequired {
		t.Fatalf("expected CONFIRM_REQUIRED, got %v", err)
	}
}

func TestSubmitTokenForOtherAssignmentRefused(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)))

	req := baseRequest("/tmp/other.md", token)
	req.AssignmentID = 99
	_, err := gate.Submit(ctx, req)
	if ce, ok := types.AsCLIError(err); !ok || ce.Code != types.CodeConfirmRequired {
		t.Fatalf("expected CONFIRM_REQUIRED, got %v", err)
	}

	// The mismatch did not burn the token for its own assignment.
	if _, err := store.ConsumeReviewToken(ctx, idgen.TokenHash(token), 42, gateEpoch.Add(2*time.Minute)); err != nil {
		t.Errorf("token unusable after mismatch refusal: %v", err)
	}
}

func TestSubmitDryRun(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)))

	file := filepath.Join(t.TempDir(), "essay.md")
	req := baseRequest(file, token)
	req.DryRun = true
	out, err := gate.Submit(ctx, req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Replayed {
		t.Error("dry run marked replayed")
	}
	if out.Result["status"] != "dry_run" || out.Result["message"] != "Dry run only. No submission sent." {
		t.Errorf("result = %v", out.Result)
	}
	if writer.calls != 0 {
		t.Errorf("dry run performed a write: %d calls", writer.calls)
	}

	// Dry runs still validate real intent: the token is spent.
	tok, err := store.GetReviewToken(ctx, idgen.TokenHash(token))
	if err != nil {
		t.Fatal(err)
	}
	if !tok.Consumed() {
		t.Error("dry run left the token unconsumed")
	}

	// But no ledger entry exists, so a later real submit is not blocked.
	_, err = store.GetSubmission(ctx, out.Key)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("dry run wrote a ledger entry: %v", err)
	}

	runID, _ := out.Result["run_id"].(string)
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != types.RunStatusSucceeded || run.Metadata == nil || !run.Metadata.DryRun {
		t.Errorf("dry run record = %+v", run)
	}
}

func TestSubmitTokenAgePolicy(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	pol := &policy.Policy{Default: &policy.Rule{MaxReviewTokenAgeMinutes: intPtr(1)}}

	// Token is 5 minutes old at submit time, inside TTL but past the policy.
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(5*time.Minute)), WithPolicy(pol))

	_, err := gate.Submit(ctx, baseRequest("/tmp/essay.md", token))
	ce, ok := types.AsCLIError(err)
	if !ok || ce.Code != types.CodePolicyViolation {
		t.Fatalf("expected POLICY_VIOLATION, got %v", err)
	}
	if !strings.Contains(ce.Message, "POLICY_REVIEW_TOKEN_TOO_OLD") {
		t.Errorf("message = %q", ce.Message)
	}

	// Token validation precedes the policy check, so the refusal spent it.
	tok, err := store.GetReviewToken(ctx, idgen.TokenHash(token))
	if err != nil {
		t.Fatal(err)
	}
	if !tok.Consumed() {
		t.Error("policy refusal should consume the validated token")
	}

	// Dry runs bypass the age rule.
	fresh := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	req := baseRequest("/tmp/essay.md", fresh)
	req.DryRun = true
	if _, err := gate.Submit(ctx, req); err != nil {
		t.Errorf("dry run blocked by age policy: %v", err)
	}
}

func TestSubmitPolicyDryRunOnly(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	pol := &policy.Policy{Default: &policy.Rule{DryRunOnly: true}}
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)), WithPolicy(pol))

	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	_, err := gate.Submit(ctx, baseRequest("/tmp/essay.md", token))
	ce, ok := types.AsCLIError(err)
	if !ok || ce.Code != types.CodePolicyViolation {
		t.Fatalf("expected POLICY_VIOLATION, got %v", err)
	}
	if !strings.Contains(ce.Message, "POLICY_DRY_RUN_ONLY") {
		t.Errorf("message = %q", ce.Message)
	}
	if writer.calls != 0 {
		t.Errorf("writer calls = %d", writer.calls)
	}

	fresh := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	req := baseRequest("/tmp/essay.md", fresh)
	req.DryRun = true
	if _, err := gate.Submit(ctx, req); err != nil {
		t.Errorf("dry run refused under dry-run-only policy: %v", err)
	}
}

func TestSubmitWriteFailureMarksRunFailed(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	writer.err = &canvas.APIError{StatusCode: 401, Endpoint: "submit", URL: "https://canvas.example/api/v1"}
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)))

	file := filepath.Join(t.TempDir(), "essay.md")
	_, err := gate.Submit(ctx, baseRequest(file, token))
	ce, ok := types.AsCLIError(err)
	if !ok || ce.Code != types.CodeAuth {
		t.Fatalf("expected AUTH_401, got %v", err)
	}
	if !strings.HasPrefix(ce.Message, "Canvas API error:") {
		t.Errorf("message = %q", ce.Message)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != types.RunStatusFailed {
		t.Errorf("runs = %+v", runs)
	}

	// Failed writes leave no ledger entry; a retry may attempt a fresh write.
	_, err = store.GetSubmission(ctx, DefaultKey(42, file))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("ledger entry present after failure: %v", err)
	}
}

func TestSubmitCustomIdempotencyKey(t *testing.T) {
	store, writer := newGateFixtures(t)
	ctx := context.Background()
	token := seedToken(t, store, 42, gateEpoch, 15*time.Minute)
	gate := NewGate(store, writer, fixedAt(gateEpoch.Add(time.Minute)))

	req := baseRequest("/tmp/essay.md", token)
	req.IdempotencyKey = "homework-batch-7"
	first, err := gate.Submit(ctx, req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if first.Key != "homework-batch-7" {
		t.Errorf("key = %q", first.Key)
	}

	// The custom key governs replay even when the file differs.
	req.File = "/tmp/renamed.md"
	second, err := gate.Submit(ctx, req)
	if err != nil {
		t.Fatalf("replay Submit: %v", err)
	}
	if !second.Replayed || second.Result["file"] != "/tmp/essay.md" {
		t.Errorf("replay outcome = %+v", second)
	}
}

func TestDefaultKeyUsesAbsolutePath(t *testing.T) {
	key := DefaultKey(42, "/tmp/work/essay.md")
	if key != "submit:42:/tmp/work/essay.md" {
		t.Errorf("key = %q", key)
	}

	rel := DefaultKey(7, "notes.md")
	if !strings.HasPrefix(rel, "submit:7:") || !strings.HasSuffix(rel, string(filepath.Separator)+"notes.md") {
		t.Errorf("relative key = %q", rel)
	}
	if !filepath.IsAbs(strings.TrimPrefix(rel, "submit:7:")) {
		t.Errorf("relative input not resolved to an absolute path: %q", rel)
	}
}
