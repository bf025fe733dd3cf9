package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/modes"
	"github.com/canvasai/canvas-ai/internal/policy"
	"github.com/canvasai/canvas-ai/internal/types"
	"github.com/canvasai/canvas-ai/internal/workflow"
)

var (
	doMode      string
	doGoal      string
	doResume    string
	doInputFile string
)

var doCmd = &cobra.Command{
	Use:   "do <assignment-id>",
	Short: "Drive an assignment workflow to ready",
	Long: `Run the workflow state machine for one assignment: plan, draft, review,
and checklist artifacts land under the run's artifact directory. The run
stops at ready for human review; nothing is ever submitted from here.

Interrupted runs resume with --resume run_<id>; completed states are not
re-executed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignmentID := parseID(args[0], "assignment id")
		mode := types.Mode(doMode)

		engine := workflow.NewEngine(store)
		run, _, err := engine.Resolve(rootCtx, workflow.ResolveRequest{
			AssignmentID: assignmentID,
			Mode:         mode,
			Goal:         doGoal,
			ResumeID:     doResume,
		})
		if err != nil {
			fail(err)
		}

		// A run already at ready answers from local state, before any
		// network or policy checks.
		if run.WorkflowState() == types.StateReady {
			outcome, err := engine.RunToReady(rootCtx, run, workflow.Inputs{})
			if err != nil {
				fail(err)
			}
			emit("do", outcome, fmt.Sprintf("Workflow already ready. run_id=%s", outcome.RunID))
			return
		}

		client, err := getClient()
		if err != nil {
			fail(err)
		}
		assignment, err := client.GetAssignment(rootCtx, assignmentID)
		if err != nil {
			fail(canvas.MapError(err))
		}

		pol, err := policy.Load()
		if err != nil {
			fail(err)
		}
		if err := pol.EnforceDo(assignment.CourseID, mode); err != nil {
			fail(err)
		}

		polishInput := ""
		if doInputFile != "" {
			data, err := os.ReadFile(doInputFile)
			if err != nil {
				failf(types.CodeValidation, "Cannot read --input-file %s: %v", doInputFile, err)
			}
			polishInput = string(data)
		}

		overrides, err := modes.LoadOverrides()
		if err != nil {
			WarnError("ignoring modes.toml: %v", err)
		}

		outcome, err := engine.RunToReady(rootCtx, run, workflow.Inputs{
			Assignment:  assignment,
			PolishInput: polishInput,
			ExtraNotes:  overrides.Notes(mode),
		})
		if err != nil {
			fail(err)
		}

		logEvent("do", fmt.Sprintf("id=%d,mode=%s,run_id=%s,resume=%t",
			assignmentID, mode, outcome.RunID, doResume != ""))
		emit("do", outcome,
			fmt.Sprintf("Workflow complete: run_id=%s", outcome.RunID),
			"Artifacts written for human review. No auto-submit performed.")
	},
}

func init() {
	doCmd.Flags().StringVar(&doMode, "mode", "", "Workflow mode: tutor|outline|draft|polish (required)")
	doCmd.Flags().StringVar(&doGoal, "goal", "", "Optional intent goal for this run")
	doCmd.Flags().StringVar(&doResume, "resume", "", "Resume an existing do run_id")
	doCmd.Flags().StringVar(&doInputFile, "input-file", "", "Draft input file, required for --mode polish")
	_ = doCmd.MarkFlagRequired("mode")
	rootCmd.AddCommand(doCmd)
}
