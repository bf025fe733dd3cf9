package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/types"
)

// Scorer estimates rubric alignment for draft content. Implementations must
// be pure: the same assignment and content always yield the same rows, since
// review output is compared across retries by agent callers.
type Scorer interface {
	Score(assignment *canvas.Assignment, content string) []types.CriterionScore
}

// RubricScorer is the built-in deterministic scorer. It is a placeholder
// heuristic over draft length and evidence markers, not a real grader.
type RubricScorer struct{}

// shortDraftThreshold is the rune count below which every criterion scores
// developing.
const shortDraftThreshold = 250

// defaultCriteria is used when the assignment carries no rubric.
var defaultCriteria = []string{
	"Prompt coverage",
	"Evidence and examples",
	"Organization and clarity",
	"Grammar and style",
}

// RubricCriteria extracts criterion names from the assignment rubric, falling
// back to a generic four-criterion rubric when none is attached.
func RubricCriteria(a *canvas.Assignment) []string {
	var criteria []string
	if a != nil {
		for _, item := range a.Rubric {
			if name := item.Name(); name != "" {
				criteria = append(criteria, name)
			}
		}
	}
	if len(criteria) == 0 {
		return append([]string(nil), defaultCriteria...)
	}
	return criteria
}

// Score rates the content against each rubric criterion. Band selection:
// short drafts score developing, drafts with numbers or evidence phrasing
// score proficient, everything else approaching. The first criterion is
// additionally capped at approaching while the draft still contains open
// questions.
func (RubricScorer) Score(a *canvas.Assignment, content string) []types.CriterionScore {
	text := strings.ToLower(strings.TrimSpace(content))
	length := utf8.RuneCountInString(text)
	hasNumbers := strings.ContainsAny(text, "0123456789")

	criteria := RubricCriteria(a)
	rows := make([]types.CriterionScore, 0, len(criteria))
	for idx, criterion := range criteria {
		var band string
		var gaps, fixes []string
		switch {
		case length < shortDraftThreshold:
			band = types.BandDeveloping
			gaps = []string{"Needs more depth and detail"}
			fixes = []string{"Add at least one concrete supporting paragraph"}
		case hasNumbers || strings.Contains(text, "because") || strings.Contains(text, "for example"):
			band = types.BandProficient
			gaps = []string{"Could strengthen specificity"}
			fixes = []string{"Add source-backed facts and clearer transitions"}
		default:
			band = types.BandApproaching
			gaps = []string{"Limited concrete support"}
			fixes = []string{"Add examples, data, or textual evidence"}
		}

		if idx == 0 && strings.Contains(text, "?") {
			band = types.BandApproaching
			gaps = append(gaps, "Main claim still exploratory")
			fixes = append(fixes, "Convert questions into a clear thesis statement")
		}

		rows = append(rows, types.CriterionScore{
			Criterion:          criterion,
			EstimatedScoreBand: band,
			Gaps:               gaps,
			SuggestedFixes:     fixes,
		})
	}
	return rows
}

// maxOptimizationPasses bounds the rubric improvement loop.
const maxOptimizationPasses = 2

// improvementSection is appended to the draft on each optimization pass that
// still sees non-proficient criteria.
const improvementSection = "\n\n## Rubric improvement pass\n" +
	"- Clarified thesis statement for direct prompt alignment.\n" +
	"- Added concrete examples and evidence language.\n" +
	"- Improved transitions between supporting points.\n"

// OptimizeDraft iterates score-and-improve passes over the draft until every
// criterion is proficient or the pass budget is spent. Returns the final
// draft text, the per-pass report, and the final scores.
func OptimizeDraft(s Scorer, a *canvas.Assignment, draft string) (string, *types.OptimizationReport, []types.CriterionScore) {
	current := draft
	report := &types.OptimizationReport{}
	for pass := 1; pass <= maxOptimizationPasses; pass++ {
		scores := s.Score(a, current)
		gapCount := 0
		for _, row := range scores {
			if row.EstimatedScoreBand != types.BandProficient {
				gapCount++
			}
		}
		if gapCount == 0 {
			report.Passes = append(report.Passes, types.OptimizationPass{Pass: pass, ChangesApplied: false, GapCount: 0})
			break
		}
		current += improvementSection
		report.Passes = append(report.Passes, types.OptimizationPass{Pass: pass, ChangesApplied: true, GapCount: gapCount})
	}
	report.PassCount = len(report.Passes)
	return current, report, s.Score(a, current)
}
