// Package policy enforces per-course guardrails read from
// ~/.config/canvas-ai/policy.json (or policy.yaml). Policies restrict which
// workflow modes a course allows and gate the submit command.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/types"
)

// Rule is the per-course (or default) policy block.
type Rule struct {
	// AllowedModes restricts `do` to the listed modes. Empty means all
	// modes are allowed.
	AllowedModes []string `json:"allowed_modes,omitempty" yaml:"allowed_modes"`

	// DisableSubmit blocks submit entirely, including dry runs.
	DisableSubmit bool `json:"disable_submit,omitempty" yaml:"disable_submit"`

	// DryRunOnly blocks real submissions but allows --dry-run.
	DryRunOnly bool `json:"dry_run_only,omitempty" yaml:"dry_run_only"`

	// MaxReviewTokenAgeMinutes, when set, requires the consumed review
	// token to be no older than this at real-submit time.
	MaxReviewTokenAgeMinutes *int `json:"max_review_token_age_minutes,omitempty" yaml:"max_review_token_age_minutes"`
}

// Policy is the full policy file: a default rule plus per-course overrides
// keyed by course ID.
type Policy struct {
	Default *Rule            `json:"default,omitempty" yaml:"default"`
	Courses map[string]*Rule `json:"courses,omitempty" yaml:"courses"`
}

// Load reads the policy from the config directory. policy.json wins over
// policy.yaml; neither existing yields an empty (allow-everything) policy.
func Load() (*Policy, error) {
	jsonPath, err := config.PolicyPath("json")
	if err != nil {
		return nil, err
	}
	yamlPath, err := config.PolicyPath("yaml")
	if err != nil {
		return nil, err
	}
	return LoadFrom(jsonPath, yamlPath)
}

// LoadFrom reads the policy from explicit paths. Used by tests.
func LoadFrom(jsonPath, yamlPath string) (*Policy, error) {
	if data, err := os.ReadFile(jsonPath); err == nil {
		var p Policy
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid policy file %s: %w", jsonPath, err)
		}
		return &p, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}

	if data, err := os.ReadFile(yamlPath); err == nil {
		var p Policy
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid policy file %s: %w", yamlPath, err)
		}
		return &p, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}

	return &Policy{}, nil
}

// ForCourse returns the rule for a course, falling back to the default rule.
// Course ID 0 means the course is unknown and only the default applies. The
// returned rule is never nil.
func (p *Policy) ForCourse(courseID int64) *Rule {
	if p == nil {
		return &Rule{}
	}
	if courseID != 0 && p.Courses != nil {
		if rule, ok := p.Courses[strconv.FormatInt(courseID, 10)]; ok && rule != nil {
			return rule
		}
	}
	if p.Default != nil {
		return p.Default
	}
	return &Rule{}
}

// EnforceDo checks whether the course allows the workflow mode.
func (p *Policy) EnforceDo(courseID int64, mode types.Mode) error {
	rule := p.ForCourse(courseID)
	if len(rule.AllowedModes) == 0 {
		return nil
	}
	for _, allowed := range rule.AllowedModes {
		if allowed == string(mode) {
			return nil
		}
	}
	return violation("POLICY_BLOCKED_MODE: mode '%s' is not allowed for this course", mode)
}

// EnforceSubmit checks the submit gates. tokenIssuedAt is the consumed
// review token's issue time, nil when no token was presented. The token-age
// rule is skipped for dry runs.
func (p *Policy) EnforceSubmit(courseID int64, dryRun bool, tokenIssuedAt *time.Time, now time.Time) error {
	rule := p.ForCourse(courseID)
	if rule.DisableSubmit {
		return violation("POLICY_SUBMIT_DISABLED: submissions are disabled by course policy")
	}
	if rule.DryRunOnly && !dryRun {
		return violation("POLICY_DRY_RUN_ONLY: policy requires --dry-run for this course")
	}

	if dryRun || rule.MaxReviewTokenAgeMinutes == nil {
		return nil
	}
	if tokenIssuedAt == nil {
		return violation("POLICY_REVIEW_TOKEN_REQUIRED: policy requires a recent review token for submit")
	}
	maxAge := time.Duration(*rule.MaxReviewTokenAgeMinutes) * time.Minute
	if now.Sub(*tokenIssuedAt) > maxAge {
		return violation("POLICY_REVIEW_TOKEN_TOO_OLD: review token is older than policy allows")
	}
	return nil
}

func violation(format string, args ...any) error {
	return types.NewCLIError(types.CodePolicyViolation, format, args...)
}
