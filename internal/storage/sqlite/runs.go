package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

const runColumns = "id, command, assignment_id, mode, goal, status, artifacts, metadata, created_at, updated_at"

// CreateRun inserts a new run row. CreatedAt/UpdatedAt are set to now when
// zero.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *types.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = run.CreatedAt
	}

	artifacts, metadata, err := marshalRunColumns(run)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.AssignmentID, run.Mode, run.Goal, run.Status,
		artifacts, metadata, formatTime(run.CreatedAt), formatTime(run.UpdatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("run %s already exists", run.ID)
		}
		return wrapDBError("create run", err)
	}
	return nil
}

// UpdateRun overwrites the mutable columns of an existing run.
func (s *SQLiteStore) UpdateRun(ctx context.Context, run *types.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	artifacts, metadata, err := marshalRunColumns(run)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET command = ?, assignment_id = ?, mode = ?, goal = ?, status = ?,
		    artifacts = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		run.Command, run.AssignmentID, run.Mode, run.Goal, run.Status,
		artifacts, metadata, formatTime(run.UpdatedAt), run.ID)
	if err != nil {
		return wrapDBError("update run", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("update run", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetRun fetches a run by ID, returning storage.ErrNotFound when absent.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*types.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, wrapDBError("get run", err)
	}
	return run, nil
}

// ListRuns returns runs ordered most-recently-updated first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*types.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		ORDER BY updated_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, wrapDBError("list runs", err)
	}
	defer rows.Close()

	var runs []*types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, wrapDBError("list runs", err)
		}
		runs = append(runs, run)
	}
	return runs, wrapDBError("list runs", rows.Err())
}

// LatestWorkflowRun returns the most recently updated workflow run for the
// assignment, or storage.ErrNotFound when the assignment has none.
func (s *SQLiteStore) LatestWorkflowRun(ctx context.Context, assignmentID int64) (*types.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE command = 'do' AND assignment_id = ?
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`, assignmentID)
	run, err := scanRun(row)
	if err != nil {
		return nil, wrapDBError("latest workflow run", err)
	}
	return run, nil
}

func marshalRunColumns(run *types.Run) (artifacts, metadata string, err error) {
	m := run.Artifacts
	if m == nil {
		m = types.ArtifactMap{}
	}
	a, err := json.Marshal(m)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal artifacts: %w", err)
	}
	metadata = "{}"
	if run.Metadata != nil {
		b, err := json.Marshal(run.Metadata)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = string(b)
	}
	return string(a), metadata, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*types.Run, error) {
	var (
		run                  types.Run
		artifacts, metadata  string
		createdAt, updatedAt string
	)
	err := row.Scan(&run.ID, &run.Command, &run.AssignmentID, &run.Mode,
		&run.Goal, &run.Status, &artifacts, &metadata, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if artifacts != "" && artifacts != "{}" {
		if err := json.Unmarshal([]byte(artifacts), &run.Artifacts); err != nil {
			return nil, fmt.Errorf("corrupt artifacts for run %s: %w", run.ID, err)
		}
	}
	if metadata != "" && metadata != "{}" {
		run.Metadata = &types.RunMetadata{}
		if err := json.Unmarshal([]byte(metadata), run.Metadata); err != nil {
			return nil, fmt.Errorf("corrupt metadata for run %s: %w", run.ID, err)
		}
	}
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if run.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &run, nil
}
