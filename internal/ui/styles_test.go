package ui

import (
	"strings"
	"testing"
)

func TestRenderStatusKeepsStatusWord(t *testing.T) {
	// Styling depends on the terminal profile, but the status word itself
	// must survive rendering in every case.
	statuses := []string{
		"queued", "running", "succeeded", "failed",
		"planning", "drafting", "reviewing", "ready",
		"someday", // unknown statuses pass through
	}
	for _, status := range statuses {
		if got := RenderStatus(status); !strings.Contains(got, status) {
			t.Errorf("RenderStatus(%q) = %q, status word lost", status, got)
		}
	}
}

func TestStatusIconNonEmpty(t *testing.T) {
	for _, status := range []string{"succeeded", "ready", "failed", "running", "queued", "unknown"} {
		if StatusIcon(status) == "" {
			t.Errorf("StatusIcon(%q) returned empty string", status)
		}
	}
}

func TestRenderCategoryUppercases(t *testing.T) {
	got := RenderCategory("workflow")
	if !strings.Contains(got, "WORKFLOW") {
		t.Errorf("RenderCategory(\"workflow\") = %q, want uppercase text", got)
	}
}
