package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/review"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

var reviewCmd = &cobra.Command{
	Use:   "review <assignment-id|run-id>",
	Short: "Review a completed workflow and mint a submit confirmation token",
	Long: `Issue the short-lived token that submit requires. The target is either an
assignment id or a do run_id; either way the assignment must have a
completed workflow run to review.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignmentID, resolved := resolveWorkflowTarget(args[0])

		client, err := getClient()
		if err != nil {
			fail(err)
		}
		if _, err := client.GetAssignment(rootCtx, assignmentID); err != nil {
			fail(canvas.MapError(err))
		}

		// An explicit run target already proved a workflow run exists.
		if !resolved {
			if _, err := store.LatestWorkflowRun(rootCtx, assignmentID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					failf(types.CodeNotFound,
						"No workflow run found for assignment %d. Run `canvas-ai do` first.", assignmentID)
				}
				fail(types.WrapInternal(err))
			}
		}

		svc := review.NewService(store, review.WithTTL(config.TokenTTL()))
		receipt, err := svc.Issue(rootCtx, assignmentID)
		if err != nil {
			fail(err)
		}

		emit("review", receipt,
			fmt.Sprintf("Review complete for assignment %d.", assignmentID),
			fmt.Sprintf("Confirm token (short-lived): %s", receipt.ConfirmToken),
		)
	},
}

// resolveWorkflowTarget turns an assignment id or run_ id into the assignment
// it names. The second return reports whether an explicit workflow run was
// resolved (and therefore already verified to exist).
func resolveWorkflowTarget(target string) (int64, bool) {
	if strings.HasPrefix(target, "run_") {
		run, err := store.GetRun(rootCtx, target)
		if errors.Is(err, storage.ErrNotFound) {
			failf(types.CodeNotFound, "Workflow run not found: %s", target)
		}
		if err != nil {
			fail(types.WrapInternal(err))
		}
		if run.Command != "do" {
			failf(types.CodeNotFound, "Workflow run not found: %s", target)
		}
		return run.AssignmentID, true
	}

	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		failf(types.CodeValidation, "Invalid target %q: expected an assignment id or run_ id.", target)
	}
	return id, false
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
