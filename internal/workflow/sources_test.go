package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/canvasai/canvas-ai/internal/canvas"
)

var sourcesNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestBuildSourcesExtractsClaimLines(t *testing.T) {
	draft := strings.Join([]string{
		"# Heading line",
		"Short sentence.",
		"This is a long enough sentence to count as a claim in the draft.",
		"A trailing line without terminal punctuation that is quite long indeed",
		"Another long enough sentence that should also be collected as a claim.",
	}, "\n")

	s := BuildSources(&canvas.Assignment{Name: "Essay 1"}, draft, sourcesNow)

	if s.Assignment != "Essay 1" {
		t.Errorf("assignment = %q", s.Assignment)
	}
	if s.CitationStyle != "placeholder" {
		t.Errorf("citation_style = %q", s.CitationStyle)
	}
	if len(s.Claims) != 2 {
		t.Fatalf("claims = %d, want 2", len(s.Claims))
	}
	// Claim IDs carry 1-based draft line numbers.
	if s.Claims[0].ClaimID != "C3" || s.Claims[1].ClaimID != "C5" {
		t.Errorf("claim ids = %q, %q", s.Claims[0].ClaimID, s.Claims[1].ClaimID)
	}
	if s.Claims[0].EvidenceLinks[0].Placeholder != "[1]" || s.Claims[1].EvidenceLinks[0].Placeholder != "[2]" {
		t.Errorf("placeholders = %q, %q",
			s.Claims[0].EvidenceLinks[0].Placeholder, s.Claims[1].EvidenceLinks[0].Placeholder)
	}
	if s.Claims[0].EvidenceLinks[0].Type != "source_placeholder" {
		t.Errorf("link type = %q", s.Claims[0].EvidenceLinks[0].Type)
	}
}

func TestBuildSourcesCapsAtFiveClaims(t *testing.T) {
	line := "This sentence is comfortably long enough to register as a claim line."
	draft := strings.Repeat(line+"\n", 8)

	s := BuildSources(nil, draft, sourcesNow)
	if len(s.Claims) != 5 {
		t.Fatalf("claims = %d, want 5", len(s.Claims))
	}
	if s.Assignment != "Assignment" {
		t.Errorf("nil assignment should fall back to %q, got %q", "Assignment", s.Assignment)
	}
	if s.Claims[4].EvidenceLinks[0].Placeholder != "[5]" {
		t.Errorf("last placeholder = %q", s.Claims[4].EvidenceLinks[0].Placeholder)
	}
}

func TestBuildSourcesEmptyDraft(t *testing.T) {
	s := BuildSources(&canvas.Assignment{Name: "Essay 1"}, "", sourcesNow)
	if len(s.Claims) != 0 {
		t.Errorf("claims = %d, want 0", len(s.Claims))
	}
}

func TestInjectInlineCitations(t *testing.T) {
	claim := "This is a long enough sentence to count as a claim in the draft."
	draft := "# Heading\n" + claim + "\nClosing line."

	s := BuildSources(nil, draft, sourcesNow)
	got := InjectInlineCitations(draft, s)

	if !strings.Contains(got, claim+" [1]") {
		t.Errorf("placeholder not appended:\n%s", got)
	}

	// A second injection must not double up the placeholder.
	again := InjectInlineCitations(got, s)
	if strings.Contains(again, "[1] [1]") {
		t.Errorf("placeholder appended twice:\n%s", again)
	}
}

func TestInjectInlineCitationsNoClaims(t *testing.T) {
	draft := "Short.\nLines."
	got := InjectInlineCitations(draft, Sources{})
	if got != draft {
		t.Errorf("draft changed with no claims")
	}
}
