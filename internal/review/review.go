// Package review issues the short-lived confirmation tokens that gate
// submission. A token proves a fresh review of the assignment preceded the
// submit attempt; it is single-use and expires after a configurable TTL.
package review

import (
	"context"
	"time"

	"github.com/canvasai/canvas-ai/internal/idgen"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

// DefaultTTL is the token lifetime when no configuration overrides it.
const DefaultTTL = 10 * time.Minute

// Service mints confirmation tokens and records the audit run for each
// review. Assignment existence is the caller's concern; the service only
// touches local state.
type Service struct {
	store storage.Store
	now   func() time.Time
	ttl   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock fixes the service's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTTL overrides the token lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService returns a token issuer backed by the given store.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receipt is the result of issuing a confirmation token, shaped for the
// review command's result envelope. ConfirmToken is the only place the raw
// token value ever appears; storage holds its hash.
type Receipt struct {
	AssignmentID int64  `json:"assignment_id"`
	ConfirmToken string `json:"confirm_token"`
	ExpiresAt    string `json:"expires_at"`
	RunID        string `json:"run_id"`
}

// Issue records a review run for the assignment and mints a token bound to
// it. The run is written first so a token never references a run that does
// not exist.
func (s *Service) Issue(ctx context.Context, assignmentID int64) (*Receipt, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	run := &types.Run{
		ID:           idgen.RunID(),
		Command:      "review",
		AssignmentID: assignmentID,
		Status:       types.RunStatusSucceeded,
		Metadata: &types.RunMetadata{
			ExpiresAt: expiresAt.Format(time.RFC3339),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, types.WrapInternal(err)
	}

	token := idgen.ReviewToken()
	record := &types.ReviewToken{
		TokenHash:    idgen.TokenHash(token),
		RunID:        run.ID,
		AssignmentID: assignmentID,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
	}
	if err := s.store.CreateReviewToken(ctx, record); err != nil {
		return nil, types.WrapInternal(err)
	}

	return &Receipt{
		RunID:        run.ID,
		AssignmentID: assignmentID,
		ConfirmToken: token,
		ExpiresAt:    expiresAt.Format(time.RFC3339),
	}, nil
}
