package main

import (
	"testing"
	"time"
)

func TestAssignmentTitle(t *testing.T) {
	if got := assignmentTitle(""); got != "Untitled" {
		t.Errorf("got %q, want \"Untitled\"", got)
	}
	if got := assignmentTitle("Essay"); got != "Essay" {
		t.Errorf("got %q, want \"Essay\"", got)
	}
}

func TestDueLabel(t *testing.T) {
	if got := dueLabel(nil); got != "unknown" {
		t.Errorf("got %q, want \"unknown\"", got)
	}
	due := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	if got := dueLabel(&due); got != "2026-03-14T15:09:00Z" {
		t.Errorf("got %q", got)
	}
}

func TestParseID(t *testing.T) {
	if got := parseID("42", "assignment id"); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}
