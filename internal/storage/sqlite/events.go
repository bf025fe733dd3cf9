package sqlite

import (
	"context"
	"time"

	"github.com/canvasai/canvas-ai/internal/types"
)

// AppendEvent records one action-log row. Command failures are logged under
// command "error" with the taxonomy code as payload.
func (s *SQLiteStore) AppendEvent(ctx context.Context, command, payload string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (ts, command, payload) VALUES (?, ?, ?)`,
		formatTime(time.Now()), command, payload)
	return wrapDBError("append event", err)
}

// ListEvents returns the newest action-log rows, most recent first.
func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]*types.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, command, payload FROM events
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, wrapDBError("list events", err)
	}
	defer rows.Close()

	var events []*types.Event
	for rows.Next() {
		var (
			ev types.Event
			ts string
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.Command, &ev.Payload); err != nil {
			return nil, wrapDBError("list events", err)
		}
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, wrapDBError("list events", rows.Err())
}

// MetricsSummary aggregates run outcomes and the most frequent error codes.
// A workflow run parked at "ready" counts as a success.
func (s *SQLiteStore) MetricsSummary(ctx context.Context) (*types.MetricsSummary, error) {
	summary := &types.MetricsSummary{
		ByCommand: map[string]types.CommandOutcomes{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT command, status, COUNT(*) FROM runs GROUP BY command, status`)
	if err != nil {
		return nil, wrapDBError("metrics summary", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			command, status string
			count           int
		)
		if err := rows.Scan(&command, &status, &count); err != nil {
			return nil, wrapDBError("metrics summary", err)
		}
		summary.TotalRuns += count
		outcomes := summary.ByCommand[command]
		switch {
		case status == types.RunStatusSucceeded || status == string(types.StateReady):
			summary.SuccessRuns += count
			outcomes.Succeeded += count
		case status == types.RunStatusFailed:
			summary.FailedRuns += count
			outcomes.Failed += count
		default:
			outcomes.Other += count
		}
		summary.ByCommand[command] = outcomes
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("metrics summary", err)
	}

	codeRows, err := s.db.QueryContext(ctx, `
		SELECT payload, COUNT(*) AS n FROM events
		WHERE command = 'error' AND payload != ''
		GROUP BY payload
		ORDER BY n DESC, payload ASC
		LIMIT 10`)
	if err != nil {
		return nil, wrapDBError("metrics summary", err)
	}
	defer codeRows.Close()

	for codeRows.Next() {
		var entry types.ErrorCodeCount
		if err := codeRows.Scan(&entry.Code, &entry.Count); err != nil {
			return nil, wrapDBError("metrics summary", err)
		}
		summary.CommonErrorCodes = append(summary.CommonErrorCodes, entry)
	}
	return summary, wrapDBError("metrics summary", codeRows.Err())
}
