package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/canvasai/canvas-ai/internal/types"
)

// Artifact file names within a run's artifact directory.
const (
	planFile      = "plan.json"
	draftFile     = "draft.md"
	sourcesFile   = "sources.json"
	reviewFile    = "review.json"
	evidenceFile  = "evidence.json"
	checklistFile = "submit_checklist.md"
)

// submitChecklist is the final artifact. It restates that submission is a
// separate, human-confirmed step.
const submitChecklist = "# Submit checklist\n\n" +
	"- [ ] I reviewed the draft for accuracy and originality.\n" +
	"- [ ] I verified rubric criteria coverage.\n" +
	"- [ ] I ran my own final edits and citations check.\n" +
	"- [ ] I will submit manually using review + submit safeguards.\n"

// reviewNotes flags the scorer output as an estimate.
const reviewNotes = "Deterministic MVP scorer; verify against official rubric before submission."

// PlanDocument is the content of plan.json: the standard step plan plus
// schedule blocks when the assignment has a due date.
type PlanDocument struct {
	AssignmentID   int64            `json:"assignment_id"`
	Assignment     string           `json:"assignment"`
	GeneratedAt    string           `json:"generated_at"`
	Steps          []types.PlanStep `json:"steps"`
	ScheduleBlocks []ScheduleBlock  `json:"schedule_blocks,omitempty"`
}

// ReviewDocument is the content of review.json.
type ReviewDocument struct {
	RubricScores []types.CriterionScore    `json:"rubric_scores"`
	Optimization *types.OptimizationReport `json:"optimization,omitempty"`
	Notes        string                    `json:"notes"`
	Goal         string                    `json:"goal,omitempty"`
}

// EvidenceDocument is the content of evidence.json: provenance for the
// generated draft.
type EvidenceDocument struct {
	AssignmentID   int64  `json:"assignment_id"`
	AssignmentName string `json:"assignment_name"`
	Mode           string `json:"mode"`
	Goal           string `json:"goal,omitempty"`
	GeneratedAt    string `json:"generated_at"`
}

func writeJSONArtifact(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeTextArtifact(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
