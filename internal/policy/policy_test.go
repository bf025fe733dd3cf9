package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/canvasai/canvas-ai/internal/types"
)

func loadTestPolicy(t *testing.T, name, content string) *Policy {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
	jsonPath := filepath.Join(dir, "policy.json")
	yamlPath := filepath.Join(dir, "policy.yaml")
	p, err := LoadFrom(jsonPath, yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	return p
}

func TestLoadMissingPolicyAllowsEverything(t *testing.T) {
	dir := t.TempDir()
	p, err := LoadFrom(filepath.Join(dir, "policy.json"), filepath.Join(dir, "policy.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if err := p.EnforceDo(42, types.ModeDraft); err != nil {
		t.Errorf("EnforceDo() with no policy = %v", err)
	}
	if err := p.EnforceSubmit(42, false, nil, time.Now()); err != nil {
		t.Errorf("EnforceSubmit() with no policy = %v", err)
	}
}

func TestJSONTakesPrecedenceOverYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "policy.json")
	yamlPath := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(jsonPath, []byte(`{"default": {"disable_submit": true}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("default:\n  disable_submit: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFrom(jsonPath, yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if !p.ForCourse(0).DisableSubmit {
		t.Error("JSON policy should win over YAML")
	}
}

func TestLoadYAMLPolicy(t *testing.T) {
	p := loadTestPolicy(t, "policy.yaml", `
default:
  allowed_modes: [tutor, outline]
courses:
  "101":
    dry_run_only: true
    max_review_token_age_minutes: 30
`)

	if err := p.EnforceDo(0, types.ModeDraft); err == nil {
		t.Error("default rule should block draft mode")
	}
	if err := p.EnforceDo(0, types.ModeTutor); err != nil {
		t.Errorf("default rule should allow tutor: %v", err)
	}
	rule := p.ForCourse(101)
	if !rule.DryRunOnly || rule.MaxReviewTokenAgeMinutes == nil || *rule.MaxReviewTokenAgeMinutes != 30 {
		t.Errorf("course rule = %+v", rule)
	}
}

func TestEnforceDoBlockedMode(t *testing.T) {
	p := loadTestPolicy(t, "policy.json", `{
		"courses": {"101": {"allowed_modes": ["tutor"]}}
	}`)

	err := p.EnforceDo(101, types.ModeDraft)
	if err == nil {
		t.Fatal("EnforceDo() should block draft for course 101")
	}
	cliErr, ok := types.AsCLIError(err)
	if !ok || cliErr.Code != types.CodePolicyViolation {
		t.Fatalf("error = %v, want POLICY_VIOLATION", err)
	}
	if !strings.Contains(cliErr.Message, "POLICY_BLOCKED_MODE: mode 'draft' is not allowed for this course") {
		t.Errorf("message = %q", cliErr.Message)
	}

	// Other courses fall back to the (empty) default rule.
	if err := p.EnforceDo(999, types.ModeDraft); err != nil {
		t.Errorf("EnforceDo() for unlisted course = %v", err)
	}
}

func TestEnforceSubmitDisabled(t *testing.T) {
	p := loadTestPolicy(t, "policy.json", `{"default": {"disable_submit": true}}`)

	for _, dryRun := range []bool{false, true} {
		err := p.EnforceSubmit(42, dryRun, nil, time.Now())
		if err == nil {
			t.Fatalf("EnforceSubmit(dryRun=%v) should be blocked", dryRun)
		}
		if !strings.Contains(err.Error(), "POLICY_SUBMIT_DISABLED") {
			t.Errorf("message = %q", err.Error())
		}
	}
}

func TestEnforceSubmitDryRunOnly(t *testing.T) {
	p := loadTestPolicy(t, "policy.json", `{"default": {"dry_run_only": true}}`)

	if err := p.EnforceSubmit(42, true, nil, time.Now()); err != nil {
		t.Errorf("dry run should pass: %v", err)
	}
	err := p.EnforceSubmit(42, false, nil, time.Now())
	if err == nil || !strings.Contains(err.Error(), "POLICY_DRY_RUN_ONLY: policy requires --dry-run for this course") {
		t.Errorf("real submit error = %v", err)
	}
}

func TestEnforceSubmitTokenAge(t *testing.T) {
	p := loadTestPolicy(t, "policy.json", `{"default": {"max_review_token_age_minutes": 30}}`)
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	// No token presented.
	err := p.EnforceSubmit(42, false, nil, now)
	if err == nil || !strings.Contains(err.Error(), "POLICY_REVIEW_TOKEN_REQUIRED") {
		t.Errorf("missing token error = %v", err)
	}

	// Fresh token passes.
	fresh := now.Add(-10 * time.Minute)
	if err := p.EnforceSubmit(42, false, &fresh, now); err != nil {
		t.Errorf("fresh token error = %v", err)
	}

	// Stale token fails.
	stale := now.Add(-31 * time.Minute)
	err = p.EnforceSubmit(42, false, &stale, now)
	if err == nil || !strings.Contains(err.Error(), "POLICY_REVIEW_TOKEN_TOO_OLD") {
		t.Errorf("stale token error = %v", err)
	}

	// Dry runs skip the age rule entirely.
	if err := p.EnforceSubmit(42, true, nil, now); err != nil {
		t.Errorf("dry run should skip token age rule: %v", err)
	}
}

func TestInvalidPolicyFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "policy.json")
	if err := os.WriteFile(jsonPath, []byte(`{broken`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(jsonPath, filepath.Join(dir, "policy.yaml")); err == nil {
		t.Error("LoadFrom() should fail on malformed policy.json")
	}
}
