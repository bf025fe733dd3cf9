package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/debug"
	"github.com/canvasai/canvas-ai/internal/types"
	"github.com/canvasai/canvas-ai/internal/ui"
)

var assignmentNoPager bool

var assignmentCmd = &cobra.Command{
	Use:   "assignment",
	Short: "Inspect a single assignment",
}

var assignmentShowCmd = &cobra.Command{
	Use:   "show <assignment-id>",
	Short: "Show an assignment's name, due date, and description",
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

		logEvent("assignment show", fmt.Sprintf("id=%d", assignmentID))
		if item == nil || item.ID == 0 {
			failf(types.CodeNotFound, "Assignment not found.")
		}

		description := item.Description
		if description == "" {
			description = "(none)"
		}
		if jsonOutput {
			emit("assignment.show", map[string]any{"assignment": item},
				assignmentTitle(item.Name),
				fmt.Sprintf("ID: %d", item.ID),
				fmt.Sprintf("Due: %s", dueLabel(item.DueAt)),
				fmt.Sprintf("Description: %s", description),
			)
			return
		}

		if debug.IsQuiet() {
			return
		}
		var buf strings.Builder
		buf.WriteString(ui.RenderAccent(assignmentTitle(item.Name)) + "\n")
		fmt.Fprintf(&buf, "ID: %d\n", item.ID)
		fmt.Fprintf(&buf, "Due: %s\n", dueLabel(item.DueAt))
		if item.Description == "" {
			buf.WriteString("Description: (none)\n")
		} else {
			buf.WriteString(ui.RenderMarkdown(item.Description))
		}
		if err := ui.ToPager(buf.String(), ui.PagerOptions{NoPager: assignmentNoPager}); err != nil {
			fmt.Print(buf.String())
		}
	},
}

// parseID parses a positional numeric id, failing with VALIDATION_ERROR on
// anything non-numeric.
func parseID(raw, what string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		failf(types.CodeValidation, "Invalid %s: %q (expected an integer).", what, raw)
	}
	return id
}

func init() {
	assignmentShowCmd.Flags().BoolVar(&assignmentNoPager, "no-pager", false, "Print directly instead of piping long descriptions to the pager")
	assignmentCmd.AddCommand(assignmentShowCmd)
	rootCmd.AddCommand(assignmentCmd)
}
