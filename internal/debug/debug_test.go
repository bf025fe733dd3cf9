package debug

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// saveState snapshots the package toggles and restores them when the
// test finishes.
func saveState(t *testing.T) {
	t.Helper()
	origEnabled, origVerbose, origQuiet := enabled, verbose, quiet
	t.Cleanup(func() {
		enabled, verbose, quiet = origEnabled, origVerbose, origQuiet
	})
}

// capture swaps target (os.Stdout or os.Stderr) for a pipe while fn
// runs and returns everything written to it.
func capture(t *testing.T, target **os.File, fn func()) string {
	t.Helper()
	orig := *target
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	*target = w
	defer func() { *target = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("reading captured output: %v", err)
	}
	return buf.String()
}

func TestEnabledTracksEnvAndVerbose(t *testing.T) {
	saveState(t)

	enabled, verbose = false, false
	if Enabled() {
		t.Error("Enabled() = true with both toggles off")
	}

	enabled = true
	if !Enabled() {
		t.Error("Enabled() = false with the env toggle on")
	}

	enabled = false
	SetVerbose(true)
	if !Enabled() {
		t.Error("Enabled() = false after SetVerbose(true)")
	}
	SetVerbose(false)
	if Enabled() {
		t.Error("Enabled() = true after SetVerbose(false)")
	}
}

func TestLogfGatedByEnabled(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    string
	}{
		{"writes to stderr when on", true, "resolved run run-1 in 12ms\n"},
		{"silent when off", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveState(t)
			enabled, verbose = tt.enabled, false

			got := capture(t, &os.Stderr, func() {
				Logf("resolved run %s in %dms\n", "run-1", 12)
			})
			if got != tt.want {
				t.Errorf("Logf output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintfGatedByEnabled(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    string
	}{
		{"writes to stdout when on", true, "attempt 3\n"},
		{"silent when off", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveState(t)
			enabled, verbose = tt.enabled, false

			got := capture(t, &os.Stdout, func() {
				Printf("attempt %d\n", 3)
			})
			if got != tt.want {
				t.Errorf("Printf output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuietSuppressesInformationalOutput(t *testing.T) {
	saveState(t)

	SetQuiet(true)
	if !IsQuiet() {
		t.Error("IsQuiet() = false after SetQuiet(true)")
	}
	got := capture(t, &os.Stdout, func() {
		PrintNormal("saved feedback #%d\n", 3)
		PrintlnNormal("No runs found.")
	})
	if got != "" {
		t.Errorf("quiet mode still produced output: %q", got)
	}

	SetQuiet(false)
	if IsQuiet() {
		t.Error("IsQuiet() = true after SetQuiet(false)")
	}
	got = capture(t, &os.Stdout, func() {
		PrintNormal("saved feedback #%d\n", 3)
		PrintlnNormal("No runs found.")
	})
	want := "saved feedback #3\nNo runs found.\n"
	if got != want {
		t.Errorf("informational output = %q, want %q", got, want)
	}
}

func TestQuietDoesNotSilenceDiagnostics(t *testing.T) {
	saveState(t)

	SetQuiet(true)
	SetVerbose(true)
	got := capture(t, &os.Stderr, func() {
		Logf("store opened at %s\n", "/tmp/canvas.db")
	})
	if got == "" {
		t.Error("quiet mode must not suppress diagnostic output")
	}
}
