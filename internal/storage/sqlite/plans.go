package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/canvasai/canvas-ai/internal/types"
)

// CreatePlan persists an assignment step plan.
func (s *SQLiteStore) CreatePlan(ctx context.Context, plan *types.PlanRecord) error {
	if plan.ID == "" {
		return fmt.Errorf("plan id is required")
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	steps, err := json.Marshal(plan.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal plan steps: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (id, assignment_id, steps, created_at)
		VALUES (?, ?, ?, ?)`,
		plan.ID, plan.AssignmentID, string(steps), formatTime(plan.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("plan %s already exists", plan.ID)
		}
		return wrapDBError("create plan", err)
	}
	return nil
}

// GetPlan fetches a plan by ID, returning storage.ErrNotFound when absent.
func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*types.PlanRecord, error) {
	var (
		plan      types.PlanRecord
		steps     string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, assignment_id, steps, created_at FROM plans WHERE id = ?`, id).
		Scan(&plan.ID, &plan.AssignmentID, &steps, &createdAt)
	if err != nil {
		return nil, wrapDBError("get plan", err)
	}
	if err := json.Unmarshal([]byte(steps), &plan.Steps); err != nil {
		return nil, fmt.Errorf("corrupt steps for plan %s: %w", id, err)
	}
	if plan.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &plan, nil
}
