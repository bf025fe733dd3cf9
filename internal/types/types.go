// Package types defines core data structures for the canvas-ai assignment assistant.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion tags every JSON envelope emitted by the CLI. Bump only when
// the envelope shape changes in a way consumers must adapt to.
const SchemaVersion = "v5"

// FeatureContractVersion is the agent-integration contract revision. MCP
// frontends must be regenerated whenever this changes.
const FeatureContractVersion = "2026-02-v1"

// Mode selects the kind of output a workflow run generates for an assignment.
type Mode string

// Workflow modes
const (
	ModeTutor   Mode = "tutor"   // study guide with guided steps, no prose written for the student
	ModeOutline Mode = "outline" // structured outline scaffold
	ModeDraft   Mode = "draft"   // first-pass draft prose
	ModePolish  Mode = "polish"  // revision of student-provided input text
)

// IsValid checks if the mode value is valid
func (m Mode) IsValid() bool {
	switch m {
	case ModeTutor, ModeOutline, ModeDraft, ModePolish:
		return true
	}
	return false
}

// AllModes returns every valid mode name in declaration order.
func AllModes() []string {
	return []string{string(ModeTutor), string(ModeOutline), string(ModeDraft), string(ModePolish)}
}

// RunState is a workflow run's position in the drafting pipeline.
// The pipeline is linear and forward-only: queued -> planning -> drafting ->
// reviewing -> ready. There are no backward or skip transitions.
type RunState string

// Workflow states
const (
	StateQueued    RunState = "queued"
	StatePlanning  RunState = "planning"
	StateDrafting  RunState = "drafting"
	StateReviewing RunState = "reviewing"
	StateReady     RunState = "ready"
)

// IsValid checks if the state value is valid
func (s RunState) IsValid() bool {
	switch s {
	case StateQueued, StatePlanning, StateDrafting, StateReviewing, StateReady:
		return true
	}
	return false
}

// Terminal reports whether the state has no successor.
func (s RunState) Terminal() bool {
	return s == StateReady
}

// Next returns the successor state. ok is false for the terminal state and
// for values outside the enum, so every input has a defined answer.
func (s RunState) Next() (next RunState, ok bool) {
	switch s {
	case StateQueued:
		return StatePlanning, true
	case StatePlanning:
		return StateDrafting, true
	case StateDrafting:
		return StateReviewing, true
	case StateReviewing:
		return StateReady, true
	default:
		return s, false
	}
}

// Generic statuses for runs recorded by non-workflow commands
// (review, submit, execute). Workflow runs use RunState values instead.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Artifact names used as keys in a run's artifact map. Values are absolute
// paths under the run's artifact directory.
const (
	ArtifactPlan      = "plan_json"
	ArtifactDraft     = "draft_md"
	ArtifactSources   = "sources_json"
	ArtifactReview    = "review_json"
	ArtifactEvidence  = "evidence_json"
	ArtifactChecklist = "submit_checklist_md"
)

// Run records one command execution. Runs created by `do` carry the workflow
// state machine in Status; runs from other commands record running/succeeded/
// failed. Runs are never deleted automatically.
type Run struct {
	ID           string       `json:"run_id"`
	Command      string       `json:"command"`
	AssignmentID int64        `json:"assignment_id,omitempty"`
	Mode         Mode         `json:"mode,omitempty"`
	Goal         string       `json:"goal,omitempty"`
	Status       string       `json:"status"`
	Artifacts    ArtifactMap  `json:"artifacts,omitempty"`
	Metadata     *RunMetadata `json:"metadata,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ArtifactMap maps artifact names to absolute file paths.
type ArtifactMap map[string]string

// Clone returns a copy so callers can mutate without aliasing stored state.
func (m ArtifactMap) Clone() ArtifactMap {
	if m == nil {
		return nil
	}
	out := make(ArtifactMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WorkflowState returns the run's status interpreted as a workflow state.
// Only meaningful for runs created by the `do` command.
func (r *Run) WorkflowState() RunState {
	return RunState(r.Status)
}

// Validate checks if the run has valid field values
func (r *Run) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run_id is required")
	}
	if r.Command == "" {
		return fmt.Errorf("command is required")
	}
	if r.Status == "" {
		return fmt.Errorf("status is required")
	}
	if r.Command == "do" {
		if !r.Mode.IsValid() {
			return fmt.Errorf("invalid mode: %s", r.Mode)
		}
		if !r.WorkflowState().IsValid() {
			return fmt.Errorf("invalid workflow state: %s", r.Status)
		}
	}
	return nil
}

// RunMetadata holds per-run bookkeeping serialized into the runs table.
// Draft text is not duplicated here; it lives only in the draft.md artifact.
type RunMetadata struct {
	StateHistory  []StateChange       `json:"state_history,omitempty"`
	Summary       string              `json:"summary,omitempty"`
	FeedbackHints []string            `json:"feedback_hints_used,omitempty"`
	Optimization  *OptimizationReport `json:"optimization,omitempty"`

	// Fields used by non-workflow command runs.
	Error       string `json:"error,omitempty"`
	PlanID      string `json:"plan_id,omitempty"`
	Step        int    `json:"step,omitempty"`
	Instruction string `json:"instruction,omitempty"`
	File        string `json:"file,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// StateChange is one entry in a workflow run's state history.
type StateChange struct {
	State RunState  `json:"state"`
	At    time.Time `json:"ts"`
}

// OptimizationReport records the deterministic rubric improvement passes
// applied while drafting.
type OptimizationReport struct {
	Passes    []OptimizationPass `json:"passes"`
	PassCount int                `json:"pass_count"`
}

// OptimizationPass is one improvement iteration over the draft.
type OptimizationPass struct {
	Pass           int  `json:"pass"`
	ChangesApplied bool `json:"changes_applied"`
	GapCount       int  `json:"gap_count"`
}

// Rubric score bands, weakest to strongest.
const (
	BandDeveloping  = "developing"
	BandApproaching = "approaching"
	BandProficient  = "proficient"
)

// CriterionScore is one row of a rubric estimate: the criterion, the
// estimated band, what is missing, and what to change.
type CriterionScore struct {
	Criterion          string   `json:"criterion"`
	EstimatedScoreBand string   `json:"estimated_score_band"`
	Gaps               []string `json:"gaps"`
	SuggestedFixes     []string `json:"suggested_fixes"`
}

// ReviewToken is a single-use confirmation credential minted by the review
// command and spent by submit. It records the review run that issued it and
// the assignment it covers. Only the SHA-256 hash of the opaque token value
// is persisted.
type ReviewToken struct {
	TokenHash    string     `json:"-"`
	RunID        string     `json:"run_id"`
	AssignmentID int64      `json:"assignment_id"`
	IssuedAt     time.Time  `json:"issued_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
}

// Expired reports whether the token's lifetime has passed at the given instant.
func (t *ReviewToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Consumed reports whether the token was already spent.
func (t *ReviewToken) Consumed() bool {
	return t.ConsumedAt != nil
}

// SubmissionRecord is one immutable idempotency-ledger entry. Result holds the
// exact marshaled result bytes returned to the first caller; replays emit the
// same bytes unchanged.
type SubmissionRecord struct {
	IdempotencyKey string          `json:"idempotency_key"`
	RunID          string          `json:"run_id"`
	AssignmentID   int64           `json:"assignment_id"`
	FilePath       string          `json:"file_path"`
	Result         json.RawMessage `json:"result"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PlanRecord is a persisted assignment step plan created by the plan command.
type PlanRecord struct {
	ID           string     `json:"id"`
	AssignmentID int64      `json:"assignment_id"`
	Steps        []PlanStep `json:"steps"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PlanStep is one numbered instruction in a plan.
type PlanStep struct {
	Step        int    `json:"step"`
	Instruction string `json:"instruction"`
}

// FeedbackEntry is stored instructor feedback used to steer future drafts.
type FeedbackEntry struct {
	ID           int64     `json:"id"`
	CourseID     int64     `json:"course_id,omitempty"`
	AssignmentID int64     `json:"assignment_id,omitempty"`
	Text         string    `json:"feedback_text"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event is one action-log row. Failed commands log command "error" with the
// taxonomy code in Payload.
type Event struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"ts"`
	Command   string    `json:"command"`
	Payload   string    `json:"payload,omitempty"`
}

// CommandOutcomes aggregates run results for one command.
type CommandOutcomes struct {
	Failed    int `json:"failed"`
	Other     int `json:"other"`
	Succeeded int `json:"succeeded"`
}

// ErrorCodeCount pairs a taxonomy code with its occurrence count.
type ErrorCodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// MetricsSummary aggregates run history for the metrics command.
type MetricsSummary struct {
	ByCommand        map[string]CommandOutcomes `json:"by_command"`
	CommonErrorCodes []ErrorCodeCount           `json:"common_error_codes"`
	FailedRuns       int                        `json:"failed_runs"`
	SuccessRuns      int                        `json:"success_runs"`
	TotalRuns        int                        `json:"total_runs"`
}
