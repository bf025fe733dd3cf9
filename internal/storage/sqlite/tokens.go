package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

// CreateReviewToken persists a freshly issued token. Only the hash is stored.
func (s *SQLiteStore) CreateReviewToken(ctx context.Context, tok *types.ReviewToken) error {
	if tok.TokenHash == "" {
		return fmt.Errorf("token hash is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_tokens (token_hash, run_id, assignment_id, issued_at, expires_at, consumed_at)
		VALUES (?, ?, ?, ?, ?, NULL)`,
		tok.TokenHash, tok.RunID, tok.AssignmentID,
		formatTime(tok.IssuedAt), formatTime(tok.ExpiresAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("review token already exists")
		}
		return wrapDBError("create review token", err)
	}
	return nil
}

// GetReviewToken looks a token up by hash without consuming it.
func (s *SQLiteStore) GetReviewToken(ctx context.Context, tokenHash string) (*types.ReviewToken, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token_hash, run_id, assignment_id, issued_at, expires_at, consumed_at
		FROM review_tokens WHERE token_hash = ?`, tokenHash)
	tok, err := scanReviewToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrTokenNotFound
	}
	if err != nil {
		return nil, wrapDBError("get review token", err)
	}
	return tok, nil
}

// ConsumeReviewToken atomically validates and marks a token used. Checks run
// in a fixed order inside a write transaction: existence, expiry, prior use,
// then assignment binding. A token that fails any check is left untouched
// except that expired tokens stay queryable for diagnostics.
func (s *SQLiteStore) ConsumeReviewToken(ctx context.Context, tokenHash string, assignmentID int64, now time.Time) (*types.ReviewToken, error) {
	var tok *types.ReviewToken
	err := s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, `
			SELECT token_hash, run_id, assignment_id, issued_at, expires_at, consumed_at
			FROM review_tokens WHERE token_hash = ?`, tokenHash)
		t, err := scanReviewToken(row)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrTokenNotFound
		}
		if err != nil {
			return wrapDBError("consume review token", err)
		}

		if t.Expired(now) {
			return storage.ErrTokenExpired
		}
		if t.Consumed() {
			return storage.ErrTokenConsumed
		}
		if t.AssignmentID != assignmentID {
			return storage.ErrTokenRunMismatch
		}

		consumed := now.UTC()
		if _, err := conn.ExecContext(ctx, `
			UPDATE review_tokens SET consumed_at = ? WHERE token_hash = ?`,
			formatTime(consumed), tokenHash); err != nil {
			return wrapDBError("consume review token", err)
		}
		t.ConsumedAt = &consumed
		tok = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func scanReviewToken(row rowScanner) (*types.ReviewToken, error) {
	var (
		tok                 types.ReviewToken
		issuedAt, expiresAt string
		consumedAt          sql.NullString
	)
	err := row.Scan(&tok.TokenHash, &tok.RunID, &tok.AssignmentID,
		&issuedAt, &expiresAt, &consumedAt)
	if err != nil {
		return nil, err
	}
	if tok.IssuedAt, err = parseTime(issuedAt); err != nil {
		return nil, err
	}
	if tok.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if consumedAt.Valid {
		t, err := parseTime(consumedAt.String)
		if err != nil {
			return nil, err
		}
		tok.ConsumedAt = &t
	}
	return &tok, nil
}
