package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/timeparsing"
	"github.com/canvasai/canvas-ai/internal/types"
)

var (
	assignmentsDueDays  int
	assignmentsDueUntil string
)

var assignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "Browse Canvas assignments",
}

var assignmentsDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List assignments due within a window",
	Run: func(cmd *cobra.Command, args []string) {
		if assignmentsDueDays < 1 {
			failf(types.CodeValidation, "--days must be at least 1.")
		}

		now := time.Now().UTC()
		until := now.Add(time.Duration(assignmentsDueDays) * 24 * time.Hour)
		days := assignmentsDueDays
		if assignmentsDueUntil != "" {
			parsed, err := timeparsing.ParseRelativeTime(assignmentsDueUntil, now)
			if err != nil {
				failf(types.CodeValidation, "Cannot parse --until %q: %v", assignmentsDueUntil, err)
			}
			if !parsed.After(now) {
				failf(types.CodeValidation, "--until must be in the future.")
			}
			until = parsed
			days = int(math.Ceil(until.Sub(now).Hours() / 24))
		}

		client, err := getClient()
		if err != nil {
			fail(err)
		}
		items, err := client.ListAssignmentsDue(rootCtx, until)
		if err != nil {
			fail(canvas.MapError(err))
		}
		if items == nil {
			items = []canvas.Assignment{}
		}

		logEvent("assignments due", fmt.Sprintf("days=%d,count=%d", days, len(items)))

		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, fmt.Sprintf("- %d: %s (due: %s)", item.ID, assignmentTitle(item.Name), dueLabel(item.DueAt)))
		}
		if len(lines) == 0 {
			lines = []string{"No upcoming assignments found."}
		}
		emit("assignments.due", map[string]any{
			"assignments": items,
			"days":        days,
		}, lines...)
	},
}

func assignmentTitle(name string) string {
	if name == "" {
		return "Untitled"
	}
	return name
}

func dueLabel(due *time.Time) string {
	if due == nil {
		return "unknown"
	}
	return due.Format(time.RFC3339)
}

func init() {
	assignmentsDueCmd.Flags().IntVar(&assignmentsDueDays, "days", 14, "Window size in days (minimum 1)")
	assignmentsDueCmd.Flags().StringVar(&assignmentsDueUntil, "until", "", `Window end as natural language, e.g. "next friday" (overrides --days)`)
	assignmentsCmd.AddCommand(assignmentsDueCmd)
	rootCmd.AddCommand(assignmentsCmd)
}
