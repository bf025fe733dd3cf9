package workflow

import (
	"time"

	"github.com/canvasai/canvas-ai/internal/canvas"
)

// ScheduleBlock is one suggested work session leading up to the due date.
type ScheduleBlock struct {
	Label string `json:"label"`
	Start string `json:"start"` // RFC3339, UTC
	End   string `json:"end"`
}

// scheduleStages maps work-session labels to how many days before the due
// date each session lands.
var scheduleStages = []struct {
	label      string
	daysBefore int
}{
	{"Research", 5},
	{"Draft", 3},
	{"Revise", 1},
	{"Final QA", 0},
}

// DeriveScheduleBlocks proposes one-hour work sessions anchored to the
// assignment's due date: each starts two hours before the same wall-clock
// time N days ahead of the deadline. Assignments with no due date get no
// schedule.
func DeriveScheduleBlocks(a *canvas.Assignment) []ScheduleBlock {
	if a == nil || a.DueAt == nil {
		return nil
	}
	due := a.DueAt.UTC()

	blocks := make([]ScheduleBlock, 0, len(scheduleStages))
	for _, stage := range scheduleStages {
		start := due.Add(-time.Duration(stage.daysBefore)*24*time.Hour - 2*time.Hour)
		end := start.Add(time.Hour)
		blocks = append(blocks, ScheduleBlock{
			Label: stage.label,
			Start: start.Format(time.RFC3339),
			End:   end.Format(time.RFC3339),
		})
	}
	return blocks
}
