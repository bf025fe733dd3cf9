// Package submit implements the guarded submission gate. Checks run in a
// fixed order: explicit confirmation, token presence, idempotent replay,
// single-use token consumption, then course policy. Only after every check
// passes does the gate perform the one write side effect and record it in
// the idempotency ledger.
package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/debug"
	"github.com/canvasai/canvas-ai/internal/idgen"
	"github.com/canvasai/canvas-ai/internal/policy"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

// invalidTokenMessage covers every token refusal: absent, unknown, expired,
// already used, or issued for a different assignment. The caller is not told
// which, only that a fresh review is needed.
const invalidTokenMessage = "Missing or invalid --confirm-token. Run review first."

// Writer performs the external submission write. *canvas.Client satisfies it.
type Writer interface {
	SubmitAssignment(ctx context.Context, assignmentID int64, filePath string) (*canvas.SubmissionStub, error)
}

// Gate validates a submit request against the confirmation protocol before
// invoking the writer exactly once per idempotency key.
type Gate struct {
	store  storage.Store
	writer Writer
	policy *policy.Policy
	now    func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock fixes the gate's time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithPolicy installs course guardrails. The default policy allows
// everything.
func WithPolicy(p *policy.Policy) Option {
	return func(g *Gate) {
		if p != nil {
			g.policy = p
		}
	}
}

// NewGate returns a submission gate backed by the given store and writer.
func NewGate(store storage.Store, writer Writer, opts ...Option) *Gate {
	g := &Gate{
		store:  store,
		writer: writer,
		policy: &policy.Policy{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request is one submit invocation. CourseID may be zero when the assignment
// lookup failed; policy then applies the default rule.
type Request struct {
	AssignmentID   int64
	CourseID       int64
	File           string
	Confirm        bool
	ConfirmToken   string
	IdempotencyKey string
	DryRun         bool
}

// Outcome is the submit command's result payload. Result holds the fields of
// the (possibly replayed) submission record; Replayed reports whether the
// ledger answered instead of a fresh write.
type Outcome struct {
	Replayed bool
	Key      string
	Result   map[string]any
}

// DefaultKey derives the idempotency key used when the caller does not
// provide one: the assignment plus the file's absolute path.
func DefaultKey(assignmentID int64, file string) string {
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	return fmt.Sprintf("submit:%d:%s", assignmentID, abs)
}

// Submit runs the gate. A prior completed submission under the same
// idempotency key short-circuits every later check, including token
// validity, because the operation already happened. Dry runs consume the
// token and record a run but leave no ledger entry.
func (g *Gate) Submit(ctx context.Context, req Request) (*Outcome, error) {
	if !req.Confirm {
		return nil, types.NewCLIError(types.CodeConfirmRequired, "Refusing to submit without explicit --confirm.")
	}
	if strings.TrimSpace(req.ConfirmToken) == "" {
		return nil, types.NewCLIError(types.CodeConfirmRequired, invalidTokenMessage)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = DefaultKey(req.AssignmentID, req.File)
	}
	prior, err := g.store.GetSubmission(ctx, key)
	if err == nil {
		debug.Logf("submit: replaying ledger entry for key %s", key)
		return replayOutcome(key, prior)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, types.WrapInternal(err)
	}

	tok, err := g.store.ConsumeReviewToken(ctx, idgen.TokenHash(req.ConfirmToken), req.AssignmentID, g.now())
	if err != nil {
		if isTokenRefusal(err) {
			return nil, types.NewCLIError(types.CodeConfirmRequired, invalidTokenMessage)
		}
		return nil, types.WrapInternal(err)
	}
	debug.Logf("submit: token consumed for assignment %d (review run %s)", req.AssignmentID, tok.RunID)

	if err := g.policy.EnforceSubmit(req.CourseID, req.DryRun, &tok.IssuedAt, g.now()); err != nil {
		return nil, err
	}

	now := g.now()
	run := &types.Run{
		ID:           idgen.RunID(),
		Command:      "submit",
		AssignmentID: req.AssignmentID,
		Status:       types.RunStatusRunning,
		Metadata:     &types.RunMetadata{File: req.File, DryRun: req.DryRun},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := g.store.CreateRun(ctx, run); err != nil {
		return nil, types.WrapInternal(err)
	}

	if req.DryRun {
		result := map[string]any{
			"assignment_id": req.AssignmentID,
			"file":          req.File,
			"status":        "dry_run",
			"message":       "Dry run only. No submission sent.",
			"run_id":        run.ID,
		}
		if err := g.finishRun(ctx, run, types.RunStatusSucceeded); err != nil {
			return nil, err
		}
		// No ledger entry: a simulated submission must not block a later
		// real one under the same key.
		return &Outcome{Key: key, Result: result}, nil
	}

	stub, err := g.writer.SubmitAssignment(ctx, req.AssignmentID, req.File)
	if err != nil {
		_ = g.finishRun(ctx, run, types.RunStatusFailed)
		return nil, canvas.MapError(err)
	}

	result := map[string]any{
		"assignment_id": req.AssignmentID,
		"file":          req.File,
		"run_id":        run.ID,
	}
	if err := mergeStub(result, stub); err != nil {
		return nil, types.WrapInternal(err)
	}

	if err := g.finishRun(ctx, run, types.RunStatusSucceeded); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, types.WrapInternal(err)
	}
	stored, created, err := g.store.RecordSubmission(ctx, &types.SubmissionRecord{
		IdempotencyKey: key,
		RunID:          run.ID,
		AssignmentID:   req.AssignmentID,
		FilePath:       req.File,
		Result:         raw,
		CreatedAt:      g.now(),
	})
	if err != nil {
		return nil, types.WrapInternal(err)
	}
	if !created {
		// Lost a first-write race under this key; the stored record wins.
		return replayOutcome(key, stored)
	}
	return &Outcome{Key: key, Result: result}, nil
}

func (g *Gate) finishRun(ctx context.Context, run *types.Run, status string) error {
	run.Status = status
	run.UpdatedAt = g.now()
	if err := g.store.UpdateRun(ctx, run); err != nil {
		return types.WrapInternal(err)
	}
	return nil
}

func replayOutcome(key string, rec *types.SubmissionRecord) (*Outcome, error) {
	var fields map[string]any
	if err := json.Unmarshal(rec.Result, &fields); err != nil {
		return nil, types.WrapInternal(fmt.Errorf("corrupt idempotency record %s: %w", key, err))
	}
	return &Outcome{Replayed: true, Key: key, Result: fields}, nil
}

// mergeStub overlays the writer's result fields onto the base payload.
func mergeStub(dst map[string]any, stub *canvas.SubmissionStub) error {
	raw, err := json.Marshal(stub)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		dst[k] = v
	}
	return nil
}

func isTokenRefusal(err error) bool {
	return errors.Is(err, storage.ErrTokenNotFound) ||
		errors.Is(err, storage.ErrTokenExpired) ||
		errors.Is(err, storage.ErrTokenConsumed) ||
		errors.Is(err, storage.ErrTokenRunMismatch)
}
