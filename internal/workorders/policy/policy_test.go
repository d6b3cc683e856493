package policy

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/estimate"
	"propertyops_backend/internal/workorders/scoring"
)

func defaultConfig() Config {
	return Config{
		AutoAssignThreshold:         70,
		OwnerApprovalThresholdCents: 100000, // $1000
		EmergencyAutoAssign:         true,
	}
}

func candidate(rating float64, activeJobs int) scoring.Candidate {
	return scoring.Candidate{
		Contractor: domain.Contractor{
			ID:           uuid.New(),
			Name:         "Ace Mechanical",
			Rating:       rating,
			Availability: domain.AvailabilityAvailable,
		},
		ActiveJobs: activeJobs,
	}
}

func TestEvaluateNoContractorNeedsReview(t *testing.T) {
	tri := domain.TriageResult{Category: "Electrical", Urgency: domain.UrgencyMedium}

	decision, result, reason := Evaluate(tri, nil, estimate.Quote{}, defaultConfig())
	if decision != DecisionNeedsReview {
		t.Fatalf("expected NeedsReview, got %s", decision)
	}
	if result != nil {
		t.Fatalf("expected no assignment result without a contractor")
	}
	if reason != ReasonNoContractor {
		t.Fatalf("expected reason %q, got %q", ReasonNoContractor, reason)
	}
}

func TestEvaluateCostGateOutranksEmergency(t *testing.T) {
	// Scenario: emergency with finalQuote=$1400 against a $1000 ceiling.
	tri := domain.TriageResult{Category: "HVAC", Urgency: domain.UrgencyEmergency, Emergency: true}
	quote := estimate.Quote{EstimatedCostCents: 120000, FinalQuoteCents: 140000, MarkupPct: 20}

	decision, result, reason := Evaluate(tri, []scoring.Candidate{candidate(4.8, 0)}, quote, defaultConfig())
	if decision != DecisionOwnerApprovalNeeded {
		t.Fatalf("expected OwnerApprovalNeeded even for an emergency, got %s", decision)
	}
	if result == nil {
		t.Fatalf("expected assignment result to accompany approval routing")
	}
	if !strings.Contains(reason, "owner approval threshold") {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestEvaluateLowConfidenceNeedsReview(t *testing.T) {
	tri := domain.TriageResult{Category: "Plumbing", Urgency: domain.UrgencyMedium}
	quote := estimate.Quote{FinalQuoteCents: 50000}

	// rating 2.0, single candidate, 4 active jobs:
	// 2/5*50 + 15 + 10 = 45 < 70.
	decision, result, _ := Evaluate(tri, []scoring.Candidate{candidate(2.0, 4)}, quote, defaultConfig())
	if decision != DecisionNeedsReview {
		t.Fatalf("expected NeedsReview for low confidence, got %s", decision)
	}
	if result.Confidence != 45 {
		t.Fatalf("expected confidence 45, got %d", result.Confidence)
	}
}

func TestEvaluateEmergencyBypassesConfidenceGate(t *testing.T) {
	tri := domain.TriageResult{Category: "Plumbing", Urgency: domain.UrgencyEmergency, Emergency: true}
	quote := estimate.Quote{FinalQuoteCents: 50000}

	decision, _, _ := Evaluate(tri, []scoring.Candidate{candidate(2.0, 4)}, quote, defaultConfig())
	if decision != DecisionAutoAssign {
		t.Fatalf("expected emergency to bypass the confidence gate, got %s", decision)
	}

	cfg := defaultConfig()
	cfg.EmergencyAutoAssign = false
	decision, _, _ = Evaluate(tri, []scoring.Candidate{candidate(2.0, 4)}, quote, cfg)
	if decision != DecisionNeedsReview {
		t.Fatalf("expected confidence gate to apply with emergency bypass disabled, got %s", decision)
	}
}

func TestEvaluateAutoAssign(t *testing.T) {
	tri := domain.TriageResult{Category: "HVAC", Urgency: domain.UrgencyMedium}
	quote := estimate.Quote{EstimatedCostCents: 85000, FinalQuoteCents: 95000}

	candidates := []scoring.Candidate{candidate(4.5, 0), candidate(4.0, 1), candidate(3.5, 2)}
	decision, result, reason := Evaluate(tri, candidates, quote, defaultConfig())
	if decision != DecisionAutoAssign {
		t.Fatalf("expected AutoAssign, got %s (%s)", decision, reason)
	}
	// 4.5/5*50 + 30 + 20 = 95.
	if result.Confidence != 95 {
		t.Fatalf("expected confidence 95, got %d", result.Confidence)
	}
	if result.Reasoning == "" {
		t.Fatalf("expected human-readable reasoning")
	}
}

func TestConfidenceBounds(t *testing.T) {
	cases := []struct {
		rating     float64
		eligible   int
		activeJobs int
		want       int
	}{
		{5.0, 5, 0, 100}, // 50+30+20 capped
		{4.5, 1, 0, 80},  // 45+15+20, scenario A floor
		{0, 1, 5, 25},    // 0+15+10
	}

	for _, tc := range cases {
		got := Confidence(tc.rating, tc.eligible, tc.activeJobs)
		if got != tc.want {
			t.Fatalf("Confidence(%v,%d,%d) = %d, want %d", tc.rating, tc.eligible, tc.activeJobs, got, tc.want)
		}
		if got < 0 || got > 100 {
			t.Fatalf("confidence out of range: %d", got)
		}
	}
}
