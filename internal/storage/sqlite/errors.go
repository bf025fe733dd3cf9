package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/canvasai/canvas-ai/internal/storage"
)

// wrapDBError converts driver-level errors into storage-level ones so callers
// never depend on database/sql sentinels.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueConstraintError reports whether err is a SQLite unique constraint
// violation. The modernc driver exposes this only through the message text.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
