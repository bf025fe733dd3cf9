// Package storage provides shared types for canvas-ai state persistence.
//
// The concrete implementation lives in the sqlite sub-package. This package
// holds the interface and sentinel errors referenced by both the sqlite
// implementation and its consumers (cmd/canvas-ai, the submission gate, the
// workflow engine).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/canvasai/canvas-ai/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the database.
var ErrNotFound = errors.New("not found")

// Review-token consumption outcomes. ConsumeReviewToken returns exactly one
// of these when the atomic check-and-set fails; callers map them onto the
// CLI error taxonomy.
var (
	ErrTokenNotFound    = errors.New("confirmation token not found")
	ErrTokenExpired     = errors.New("confirmation token expired")
	ErrTokenConsumed    = errors.New("confirmation token already consumed")
	ErrTokenRunMismatch = errors.New("confirmation token issued for a different assignment")
)

// Store is the interface satisfied by *sqlite.SQLiteStore.
// Consumers depend on this interface rather than on the concrete type so that
// alternative implementations (mocks, proxies, etc.) can be substituted.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, run *types.Run) error
	UpdateRun(ctx context.Context, run *types.Run) error
	GetRun(ctx context.Context, id string) (*types.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*types.Run, error)
	// LatestWorkflowRun returns the most recently updated `do` run for the
	// assignment, or ErrNotFound when the assignment has none.
	LatestWorkflowRun(ctx context.Context, assignmentID int64) (*types.Run, error)

	// Review tokens. ConsumeReviewToken atomically checks existence, expiry,
	// consumption state, and that the token's review run covered the given
	// assignment, and marks the token consumed only when every check passes.
	// Failed checks never mutate the token row.
	CreateReviewToken(ctx context.Context, token *types.ReviewToken) error
	GetReviewToken(ctx context.Context, tokenHash string) (*types.ReviewToken, error)
	ConsumeReviewToken(ctx context.Context, tokenHash string, assignmentID int64, now time.Time) (*types.ReviewToken, error)

	// Submission idempotency ledger. RecordSubmission is get-or-create: when
	// a record already exists under the key, the stored record is returned
	// with created=false and nothing is written.
	GetSubmission(ctx context.Context, idempotencyKey string) (*types.SubmissionRecord, error)
	RecordSubmission(ctx context.Context, rec *types.SubmissionRecord) (stored *types.SubmissionRecord, created bool, err error)

	// Plans
	CreatePlan(ctx context.Context, plan *types.PlanRecord) error
	GetPlan(ctx context.Context, id string) (*types.PlanRecord, error)

	// Feedback memory. AddFeedback sets the entry's ID on success.
	AddFeedback(ctx context.Context, entry *types.FeedbackEntry) error
	ListFeedback(ctx context.Context, courseID, assignmentID int64, limit int) ([]*types.FeedbackEntry, error)
	// FeedbackHints returns up to limit hint strings scoped to the
	// assignment, falling back to course-wide feedback when the assignment
	// has none.
	FeedbackHints(ctx context.Context, courseID, assignmentID int64, limit int) ([]string, error)

	// Events and metrics
	AppendEvent(ctx context.Context, command, payload string) error
	ListEvents(ctx context.Context, limit int) ([]*types.Event, error)
	MetricsSummary(ctx context.Context) (*types.MetricsSummary, error)

	// Lifecycle
	Close() error
}
