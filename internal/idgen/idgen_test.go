package idgen

import (
	"strings"
	"testing"
)

func TestRunID(t *testing.T) {
	id := RunID()
	if !strings.HasPrefix(id, "run_") {
		t.Errorf("RunID() = %q, want run_ prefix", id)
	}
	if len(id) != len("run_")+16 {
		t.Errorf("RunID() length = %d, want %d", len(id), len("run_")+16)
	}
	if RunID() == id {
		t.Errorf("two RunID() calls returned the same value")
	}
}

func TestPlanID(t *testing.T) {
	id := PlanID()
	if !strings.HasPrefix(id, "plan_") {
		t.Errorf("PlanID() = %q, want plan_ prefix", id)
	}
	if len(id) != len("plan_")+16 {
		t.Errorf("PlanID() length = %d, want %d", len(id), len("plan_")+16)
	}
}

func TestReviewToken(t *testing.T) {
	tok := ReviewToken()
	if !strings.HasPrefix(tok, "rvw_") {
		t.Errorf("ReviewToken() = %q, want rvw_ prefix", tok)
	}
	// 18 bytes base64url without padding is 24 chars.
	if len(tok) != len("rvw_")+24 {
		t.Errorf("ReviewToken() length = %d, want %d", len(tok), len("rvw_")+24)
	}
	if strings.ContainsAny(tok[len("rvw_"):], "+/=") {
		t.Errorf("ReviewToken() = %q contains non-URL-safe characters", tok)
	}
	if ReviewToken() == tok {
		t.Errorf("two ReviewToken() calls returned the same value")
	}
}

func TestTokenHash(t *testing.T) {
	h := TokenHash("rvw_example")
	if len(h) != 64 {
		t.Errorf("TokenHash() length = %d, want 64 hex chars", len(h))
	}
	if h != TokenHash("rvw_example") {
		t.Errorf("TokenHash() is not deterministic")
	}
	if h == TokenHash("rvw_other") {
		t.Errorf("distinct tokens hashed to the same value")
	}
}
