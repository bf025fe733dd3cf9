package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/canvasai/canvas-ai/internal/canvas"
)

// maxClaims caps how many draft lines become source claims.
const maxClaims = 5

// minClaimLength is the trimmed line length a sentence must exceed to count
// as a claim worth citing.
const minClaimLength = 50

// Sources is the content of a run's sources.json artifact: claims extracted
// from the draft, each with a citation placeholder for the student to fill.
type Sources struct {
	Assignment    string        `json:"assignment"`
	GeneratedAt   string        `json:"generated_at"`
	CitationStyle string        `json:"citation_style"`
	Claims        []SourceClaim `json:"claims"`
}

// SourceClaim is one draft sentence that needs supporting evidence.
type SourceClaim struct {
	ClaimID       string         `json:"claim_id"`
	Text          string         `json:"text"`
	EvidenceLinks []EvidenceLink `json:"evidence_links"`
}

// EvidenceLink is a citation placeholder attached to a claim.
type EvidenceLink struct {
	Placeholder string `json:"placeholder"`
	Type        string `json:"type"`
	Note        string `json:"note"`
}

// BuildSources scans the draft for claim-like lines: long enough to be a
// full sentence and ending with a period. Claim IDs encode the 1-based draft
// line number so students can find them.
func BuildSources(a *canvas.Assignment, draft string, now time.Time) Sources {
	title := "Assignment"
	if a != nil && a.Name != "" {
		title = a.Name
	}

	claims := []SourceClaim{}
	for i, line := range strings.Split(draft, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > minClaimLength && strings.HasSuffix(trimmed, ".") {
			claims = append(claims, SourceClaim{
				ClaimID: fmt.Sprintf("C%d", i+1),
				Text:    trimmed,
				EvidenceLinks: []EvidenceLink{{
					Placeholder: fmt.Sprintf("[%d]", len(claims)+1),
					Type:        "source_placeholder",
					Note:        "Replace with course reading, lecture, or credible reference.",
				}},
			})
		}
		if len(claims) >= maxClaims {
			break
		}
	}

	return Sources{
		Assignment:    title,
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		CitationStyle: "placeholder",
		Claims:        claims,
	}
}

// InjectInlineCitations appends each claim's citation placeholder to the
// first draft line containing the claim text, skipping lines that already
// carry the placeholder.
func InjectInlineCitations(draft string, sources Sources) string {
	if len(sources.Claims) == 0 {
		return draft
	}
	lines := strings.Split(draft, "\n")
	for _, claim := range sources.Claims {
		if claim.Text == "" || len(claim.EvidenceLinks) == 0 {
			continue
		}
		placeholder := claim.EvidenceLinks[0].Placeholder
		for idx, line := range lines {
			if strings.Contains(line, claim.Text) && !strings.Contains(line, placeholder) {
				lines[idx] = line + " " + placeholder
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
