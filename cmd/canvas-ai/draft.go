package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/modes"
)

var draftCmd = &cobra.Command{
	Use:   "draft <assignment-id>",
	Short: "Print a quick draft preview without recording a workflow run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignmentID := parseID(args[0], "assignment id")

		client, err := getClient()
		if err != nil {
			fail(err)
		}
		item, err := client.GetAssignment(rootCtx, assignmentID)
		if err != nil {
			fail(canvas.MapError(err))
		}

		text := modes.DraftPreview(item.Name)
		logEvent("draft", fmt.Sprintf("id=%d", assignmentID))
		emit("draft", map[string]any{
			"assignment_id": assignmentID,
			"draft":         text,
		}, text)
	},
}

func init() {
	rootCmd.AddCommand(draftCmd)
}
