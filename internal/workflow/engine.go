// Package workflow implements the linear drafting state machine behind the
// do command: queued -> planning -> drafting -> reviewing -> ready.
//
// Each Advance call performs exactly one transition, writing that
// transition's artifacts before persisting the successor state, so a killed
// or failed invocation always leaves the run resumable from its last
// persisted state. Submission is never performed here; a ready run only
// means the artifacts exist for human review.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/debug"
	"github.com/canvasai/canvas-ai/internal/idgen"
	"github.com/canvasai/canvas-ai/internal/modes"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

// feedbackHintLimit is how many instructor feedback lines a draft embeds.
const feedbackHintLimit = 3

// Engine drives workflow runs through their state transitions and owns the
// run's artifact directory. It performs no network calls; callers fetch the
// assignment record and pass it in.
type Engine struct {
	store         storage.Store
	scorer        Scorer
	now           func() time.Time
	artifactsRoot string
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer substitutes the rubric scorer.
func WithScorer(s Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithClock fixes the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithArtifactsRoot writes run artifact directories under dir instead of the
// user data directory.
func WithArtifactsRoot(dir string) Option {
	return func(e *Engine) { e.artifactsRoot = dir }
}

// NewEngine returns an Engine backed by the given store.
func NewEngine(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		scorer: RubricScorer{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveRequest identifies the run a do invocation should operate on.
type ResolveRequest struct {
	AssignmentID int64
	Mode         types.Mode
	Goal         string
	ResumeID     string // existing run id to continue, empty for a fresh run
}

// Inputs carries the external data one invocation works from.
type Inputs struct {
	Assignment  *canvas.Assignment
	PolishInput string   // student draft text, required for polish mode
	ExtraNotes  []string // user template additions from modes.toml
}

// Resolve loads the resume run after checking it matches the request, or
// creates a fresh queued run. A resumed run with a blank request goal keeps
// its stored goal; a non-blank goal replaces it for the remaining states.
func (e *Engine) Resolve(ctx context.Context, req ResolveRequest) (run *types.Run, created bool, err error) {
	if !req.Mode.IsValid() {
		return nil, false, types.NewCLIError(types.CodeValidation, "Mode must be one of: tutor, outline, draft, polish.")
	}

	if req.ResumeID != "" {
		existing, err := e.store.GetRun(ctx, req.ResumeID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, types.NewCLIError(types.CodeNotFound, "Workflow run not found: %s", req.ResumeID)
		}
		if err != nil {
			return nil, false, types.WrapInternal(err)
		}
		if existing.Command != "do" {
			return nil, false, types.NewCLIError(types.CodeNotFound, "Workflow run not found: %s", req.ResumeID)
		}
		if existing.AssignmentID != req.AssignmentID {
			return nil, false, types.NewCLIError(types.CodeValidation, "--resume run assignment_id does not match the provided assignment_id.")
		}
		if existing.Mode != "" && existing.Mode != req.Mode {
			return nil, false, types.NewCLIError(types.CodeValidation, "--resume run mode does not match --mode.")
		}
		if req.Goal != "" {
			existing.Goal = req.Goal
		}
		return existing, false, nil
	}

	now := e.now()
	run = &types.Run{
		ID:           idgen.RunID(),
		Command:      "do",
		AssignmentID: req.AssignmentID,
		Mode:         req.Mode,
		Goal:         req.Goal,
		Status:       string(types.StateQueued),
		Artifacts:    types.ArtifactMap{},
		Metadata: &types.RunMetadata{
			StateHistory: []types.StateChange{{State: types.StateQueued, At: now}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.CreateRun(ctx, run); err != nil {
		return nil, false, types.WrapInternal(err)
	}
	return run, true, nil
}

// Advance executes the work for the run's current state, writes that
// transition's artifacts, and persists the successor state. A run already at
// ready is left untouched. On failure the persisted run is unchanged and the
// in-memory run should be discarded; the run resumes safely from storage.
func (e *Engine) Advance(ctx context.Context, run *types.Run, in Inputs) error {
	state := run.WorkflowState()
	if state == types.StateReady {
		return nil
	}
	next, ok := state.Next()
	if !ok {
		return types.NewCLIError(types.CodeInternal, "run %s is in unknown state %q", run.ID, run.Status)
	}
	if err := ctx.Err(); err != nil {
		return types.WrapInternal(err)
	}

	dir, err := e.runDir(run.ID)
	if err != nil {
		return types.WrapInternal(err)
	}
	if run.Artifacts == nil {
		run.Artifacts = types.ArtifactMap{}
	}
	if run.Metadata == nil {
		run.Metadata = &types.RunMetadata{}
	}

	switch state {
	case types.StateQueued:
		err = e.planWork(run, in, dir)
	case types.StatePlanning:
		err = e.draftWork(ctx, run, in, dir)
	case types.StateDrafting:
		err = e.reviewWork(run, in, dir)
	case types.StateReviewing:
		err = e.checklistWork(run, dir)
	}
	if err != nil {
		return err
	}

	now := e.now()
	run.Status = string(next)
	run.Metadata.StateHistory = append(run.Metadata.StateHistory, types.StateChange{State: next, At: now})
	run.UpdatedAt = now
	if err := e.store.UpdateRun(ctx, run); err != nil {
		return types.WrapInternal(err)
	}
	debug.Logf("workflow: run %s advanced %s -> %s", run.ID, state, next)
	return nil
}

// Outcome is the result of driving a run, shaped for the do command's
// result envelope.
type Outcome struct {
	Artifacts    types.ArtifactMap `json:"artifacts"`
	Goal         string            `json:"goal,omitempty"`
	Mode         types.Mode        `json:"mode"`
	RunID        string            `json:"run_id"`
	State        types.RunState    `json:"state"`
	Summary      string            `json:"summary"`
	AlreadyReady bool              `json:"-"`
}

// RunToReady advances the run until it reaches ready. A run already at ready
// returns its recorded outcome without touching storage or artifact files.
func (e *Engine) RunToReady(ctx context.Context, run *types.Run, in Inputs) (*Outcome, error) {
	if run.WorkflowState() == types.StateReady {
		return e.outcome(run, true), nil
	}
	for run.WorkflowState() != types.StateReady {
		if err := e.Advance(ctx, run, in); err != nil {
			return nil, err
		}
	}
	return e.outcome(run, false), nil
}

func (e *Engine) outcome(run *types.Run, alreadyReady bool) *Outcome {
	summary := ""
	if run.Metadata != nil {
		summary = run.Metadata.Summary
	}
	if summary == "" {
		if alreadyReady {
			summary = "Workflow already completed."
		} else {
			summary = "Workflow complete."
		}
	}
	return &Outcome{
		RunID:        run.ID,
		State:        run.WorkflowState(),
		Mode:         run.Mode,
		Goal:         run.Goal,
		Artifacts:    run.Artifacts.Clone(),
		Summary:      summary,
		AlreadyReady: alreadyReady,
	}
}

// planWork writes plan.json for the queued -> planning transition.
func (e *Engine) planWork(run *types.Run, in Inputs, dir string) error {
	name := ""
	if in.Assignment != nil {
		name = in.Assignment.Name
	}
	instructions := modes.PlanSteps(name)
	steps := make([]types.PlanStep, len(instructions))
	for i, instruction := range instructions {
		steps[i] = types.PlanStep{Step: i + 1, Instruction: instruction}
	}

	doc := PlanDocument{
		AssignmentID:   run.AssignmentID,
		Assignment:     modes.Title(name),
		GeneratedAt:    e.now().UTC().Format(time.RFC3339),
		Steps:          steps,
		ScheduleBlocks: DeriveScheduleBlocks(in.Assignment),
	}
	path := filepath.Join(dir, planFile)
	if err := writeJSONArtifact(path, doc); err != nil {
		return types.WrapInternal(err)
	}
	run.Artifacts[types.ArtifactPlan] = path
	return nil
}

// draftWork writes draft.md and sources.json for the planning -> drafting
// transition. The draft is rendered, cited, and optimized here so the file
// never changes during later transitions.
func (e *Engine) draftWork(ctx context.Context, run *types.Run, in Inputs, dir string) error {
	if run.Mode == types.ModePolish && strings.TrimSpace(in.PolishInput) == "" {
		return types.NewCLIError(types.CodeValidation, "Mode polish requires --input-file.")
	}

	var courseID int64
	name, description := "", ""
	if in.Assignment != nil {
		courseID = in.Assignment.CourseID
		name = in.Assignment.Name
		description = in.Assignment.Description
	}

	hints, err := e.store.FeedbackHints(ctx, courseID, run.AssignmentID, feedbackHintLimit)
	if err != nil {
		return types.WrapInternal(err)
	}

	out := modes.Render(modes.Request{
		Mode:        run.Mode,
		Title:       name,
		Description: description,
		Goal:        run.Goal,
		PolishInput: in.PolishInput,
		Hints:       hints,
		ExtraNotes:  in.ExtraNotes,
	})

	sources := BuildSources(in.Assignment, out.Draft, e.now())
	draft := InjectInlineCitations(out.Draft, sources)
	draft, report, _ := OptimizeDraft(e.scorer, in.Assignment, draft)

	draftPath := filepath.Join(dir, draftFile)
	if err := writeTextArtifact(draftPath, draft); err != nil {
		return types.WrapInternal(err)
	}
	sourcesPath := filepath.Join(dir, sourcesFile)
	if err := writeJSONArtifact(sourcesPath, sources); err != nil {
		return types.WrapInternal(err)
	}

	run.Artifacts[types.ArtifactDraft] = draftPath
	run.Artifacts[types.ArtifactSources] = sourcesPath
	run.Metadata.Summary = out.Summary
	run.Metadata.FeedbackHints = hints
	run.Metadata.Optimization = report
	return nil
}

// reviewWork writes review.json and evidence.json for the drafting ->
// reviewing transition. Scoring reads the draft artifact back so the review
// always reflects the bytes a human will see.
func (e *Engine) reviewWork(run *types.Run, in Inputs, dir string) error {
	draftPath := run.Artifacts[types.ArtifactDraft]
	if draftPath == "" {
		return types.NewCLIError(types.CodeInternal, "run %s has no draft artifact to review", run.ID)
	}
	data, err := os.ReadFile(draftPath)
	if err != nil {
		return types.WrapInternal(fmt.Errorf("read draft artifact: %w", err))
	}

	review := ReviewDocument{
		RubricScores: e.scorer.Score(in.Assignment, string(data)),
		Optimization: run.Metadata.Optimization,
		Notes:        reviewNotes,
		Goal:         run.Goal,
	}
	name := ""
	if in.Assignment != nil {
		name = in.Assignment.Name
	}
	evidence := EvidenceDocument{
		AssignmentID:   run.AssignmentID,
		AssignmentName: name,
		Mode:           string(run.Mode),
		Goal:           run.Goal,
		GeneratedAt:    e.now().UTC().Format(time.RFC3339),
	}

	reviewPath := filepath.Join(dir, reviewFile)
	if err := writeJSONArtifact(reviewPath, review); err != nil {
		return types.WrapInternal(err)
	}
	evidencePath := filepath.Join(dir, evidenceFile)
	if err := writeJSONArtifact(evidencePath, evidence); err != nil {
		return types.WrapInternal(err)
	}
	run.Artifacts[types.ArtifactReview] = reviewPath
	run.Artifacts[types.ArtifactEvidence] = evidencePath
	return nil
}

// checklistWork writes submit_checklist.md for the reviewing -> ready
// transition.
func (e *Engine) checklistWork(run *types.Run, dir string) error {
	path := filepath.Join(dir, checklistFile)
	if err := writeTextArtifact(path, submitChecklist); err != nil {
		return types.WrapInternal(err)
	}
	run.Artifacts[types.ArtifactChecklist] = path
	return nil
}

func (e *Engine) runDir(runID string) (string, error) {
	if e.artifactsRoot != "" {
		dir := filepath.Join(e.artifactsRoot, runID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		return dir, nil
	}
	return config.RunArtifactsDir(runID)
}
