package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/idgen"
	"github.com/canvasai/canvas-ai/internal/modes"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

var planCmd = &cobra.Command{
	Use:   "plan <assignment-id>",
	Short: "Generate and persist a step plan for an assignment",
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

		steps := modes.PlanSteps(item.Name)
		record := &types.PlanRecord{
			ID:           idgen.PlanID(),
			AssignmentID: assignmentID,
			CreatedAt:    time.Now().UTC(),
		}
		for i, step := range steps {
			record.Steps = append(record.Steps, types.PlanStep{Step: i + 1, Instruction: step})
		}
		if err := store.CreatePlan(rootCtx, record); err != nil {
			fail(types.WrapInternal(err))
		}

		logEvent("plan", fmt.Sprintf("id=%d,plan_id=%s", assignmentID, record.ID))

		lines := make([]string, 0, len(record.Steps))
		for _, s := range record.Steps {
			lines = append(lines, fmt.Sprintf("%d. %s", s.Step, s.Instruction))
		}
		emit("plan", map[string]any{"plan": record}, lines...)
	},
}

var executeStep int

var executeCmd = &cobra.Command{
	Use:   "execute <plan-id>",
	Short: "Record execution of one plan step",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		planID := args[0]
		if executeStep < 1 {
			failf(types.CodeValidation, "--step must be at least 1.")
		}

		plan, err := store.GetPlan(rootCtx, planID)
		if errors.Is(err, storage.ErrNotFound) {
			failf(types.CodeNotFound, "Plan not found: %s", planID)
		}
		if err != nil {
			fail(types.WrapInternal(err))
		}
		if executeStep > len(plan.Steps) {
			failf(types.CodeValidation, "Step %d is out of range for plan %s", executeStep, planID)
		}
		selected := plan.Steps[executeStep-1].Instruction

		now := time.Now().UTC()
		run := &types.Run{
			ID:           idgen.RunID(),
			Command:      "execute",
			AssignmentID: plan.AssignmentID,
			Status:       types.RunStatusRunning,
			Metadata:     &types.RunMetadata{PlanID: planID, Step: executeStep},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.CreateRun(rootCtx, run); err != nil {
			fail(types.WrapInternal(err))
		}
		run.Status = types.RunStatusSucceeded
		run.Metadata.Instruction = selected
		run.UpdatedAt = time.Now().UTC()
		if err := store.UpdateRun(rootCtx, run); err != nil {
			fail(types.WrapInternal(err))
		}

		emit("execute", map[string]any{
			"action":        selected,
			"assignment_id": plan.AssignmentID,
			"plan_id":       planID,
			"run_id":        run.ID,
			"status":        types.RunStatusSucceeded,
			"step":          executeStep,
		}, fmt.Sprintf("Executed step %d: %s", executeStep, selected))
	},
}

func init() {
	executeCmd.Flags().IntVar(&executeStep, "step", 0, "1-based step number to execute (required)")
	_ = executeCmd.MarkFlagRequired("step")
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(executeCmd)
}
