package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/canvasai/canvas-ai/internal/types"
)

// GetSubmission looks up the ledger by idempotency key, returning
// storage.ErrNotFound when no submission has been recorded under it.
func (s *SQLiteStore) GetSubmission(ctx context.Context, idempotencyKey string) (*types.SubmissionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT idempotency_key, run_id, assignment_id, file_path, result, created_at
		FROM submission_idempotency WHERE idempotency_key = ?`, idempotencyKey)
	rec, err := scanSubmission(row)
	if err != nil {
		return nil, wrapDBError("get submission", err)
	}
	return rec, nil
}

// RecordSubmission writes the ledger entry for a submission unless one
// already exists under the same key. The stored record is returned either
// way; created reports whether this call wrote it. The first write wins and
// the row is never updated afterwards.
func (s *SQLiteStore) RecordSubmission(ctx context.Context, rec *types.SubmissionRecord) (*types.SubmissionRecord, bool, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var (
		stored  *types.SubmissionRecord
		created bool
	)
	err := s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, `
			SELECT idempotency_key, run_id, assignment_id, file_path, result, created_at
			FROM submission_idempotency WHERE idempotency_key = ?`, rec.IdempotencyKey)
		existing, err := scanSubmission(row)
		if err == nil {
			stored = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return wrapDBError("record submission", err)
		}

		if _, err := conn.ExecContext(ctx, `
			INSERT INTO submission_idempotency (idempotency_key, run_id, assignment_id, file_path, result, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.IdempotencyKey, rec.RunID, rec.AssignmentID, rec.FilePath,
			string(rec.Result), formatTime(rec.CreatedAt)); err != nil {
			return wrapDBError("record submission", err)
		}
		stored = rec
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func scanSubmission(row rowScanner) (*types.SubmissionRecord, error) {
	var (
		rec       types.SubmissionRecord
		result    string
		createdAt string
	)
	err := row.Scan(&rec.IdempotencyKey, &rec.RunID, &rec.AssignmentID,
		&rec.FilePath, &result, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Result = json.RawMessage(result)
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
