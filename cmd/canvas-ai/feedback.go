package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/types"
)

// feedbackListLimit caps how many entries list returns, newest first.
const feedbackListLimit = 50

var (
	feedbackText         string
	feedbackCourseID     int64
	feedbackAssignmentID int64
	feedbackSource       string
	feedbackListCourse   int64
	feedbackListAssign   int64
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Store and recall instructor feedback",
}

var feedbackAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a feedback note for future drafts",
	Run: func(cmd *cobra.Command, args []string) {
		if strings.TrimSpace(feedbackText) == "" {
			failf(types.CodeValidation, "--text must not be empty.")
		}
		entry := &types.FeedbackEntry{
			CourseID:     feedbackCourseID,
			AssignmentID: feedbackAssignmentID,
			Text:         feedbackText,
			Source:       feedbackSource,
		}
		if err := store.AddFeedback(rootCtx, entry); err != nil {
			fail(types.WrapInternal(err))
		}
		emit("feedback.add", map[string]any{"id": entry.ID},
			fmt.Sprintf("Saved feedback #%d", entry.ID))
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored feedback, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		rows, err := store.ListFeedback(rootCtx, feedbackListCourse, feedbackListAssign, feedbackListLimit)
		if err != nil {
			fail(types.WrapInternal(err))
		}
		if rows == nil {
			rows = []*types.FeedbackEntry{}
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("#%d %s", row.ID, row.Text))
		}
		if len(lines) == 0 {
			lines = []string{"No feedback found."}
		}
		emit("feedback.list", map[string]any{"feedback": rows}, lines...)
	},
}

func init() {
	feedbackAddCmd.Flags().StringVar(&feedbackText, "text", "", "Feedback text to remember")
	feedbackAddCmd.Flags().Int64Var(&feedbackCourseID, "course-id", 0, "Scope to a course")
	feedbackAddCmd.Flags().Int64Var(&feedbackAssignmentID, "assignment-id", 0, "Scope to an assignment")
	feedbackAddCmd.Flags().StringVar(&feedbackSource, "source", "", "Where the feedback came from (default manual)")
	_ = feedbackAddCmd.MarkFlagRequired("text")

	feedbackListCmd.Flags().Int64Var(&feedbackListCourse, "course-id", 0, "Filter by course")
	feedbackListCmd.Flags().Int64Var(&feedbackListAssign, "assignment-id", 0, "Filter by assignment")

	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
	rootCmd.AddCommand(feedbackCmd)
}
