package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/canvasai/canvas-ai/internal/types"
)

// AddFeedback stores one instructor feedback note. Source defaults to
// "manual" when empty.
func (s *SQLiteStore) AddFeedback(ctx context.Context, entry *types.FeedbackEntry) error {
	if strings.TrimSpace(entry.Text) == "" {
		return fmt.Errorf("feedback text is required")
	}
	if entry.Source == "" {
		entry.Source = "manual"
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_memory (course_id, assignment_id, feedback_text, source, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.CourseID, entry.AssignmentID, entry.Text, entry.Source, formatTime(entry.CreatedAt))
	if err != nil {
		return wrapDBError("add feedback", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// ListFeedback returns stored feedback newest first, filtered by course
// and/or assignment when those IDs are non-zero.
func (s *SQLiteStore) ListFeedback(ctx context.Context, courseID, assignmentID int64, limit int) ([]*types.FeedbackEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, course_id, assignment_id, feedback_text, source, created_at
		FROM feedback_memory WHERE 1=1`
	args := []any{}
	if courseID > 0 {
		query += " AND course_id = ?"
		args = append(args, courseID)
	}
	if assignmentID > 0 {
		query += " AND assignment_id = ?"
		args = append(args, assignmentID)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list feedback", err)
	}
	defer rows.Close()

	var entries []*types.FeedbackEntry
	for rows.Next() {
		var (
			entry     types.FeedbackEntry
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.CourseID, &entry.AssignmentID,
			&entry.Text, &entry.Source, &createdAt); err != nil {
			return nil, wrapDBError("list feedback", err)
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, wrapDBError("list feedback", rows.Err())
}

// FeedbackHints returns the newest feedback texts for an assignment. When the
// assignment has no feedback of its own, course-wide feedback is used
// instead. At most limit texts are returned.
func (s *SQLiteStore) FeedbackHints(ctx context.Context, courseID, assignmentID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}

	hints, err := s.feedbackTexts(ctx, `
		SELECT feedback_text FROM feedback_memory
		WHERE course_id = ? AND assignment_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`,
		courseID, assignmentID, limit)
	if err != nil {
		return nil, err
	}
	if len(hints) == 0 && courseID > 0 {
		hints, err = s.feedbackTexts(ctx, `
			SELECT feedback_text FROM feedback_memory
			WHERE course_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?`,
			courseID, limit)
		if err != nil {
			return nil, err
		}
	}
	return hints, nil
}

func (s *SQLiteStore) feedbackTexts(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("feedback hints", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, wrapDBError("feedback hints", err)
		}
		texts = append(texts, text)
	}
	return texts, wrapDBError("feedback hints", rows.Err())
}
