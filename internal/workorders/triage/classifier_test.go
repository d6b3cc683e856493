package triage

import (
	"context"
	"errors"
	"testing"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/logger"
)

func TestClassifyEmergencyKeywordOverridesEverything(t *testing.T) {
	rules := domain.DefaultRules()

	descriptions := []string{
		"Gas leak smell near the furnace",
		"kitchen FLOODING everywhere, but no rush honestly",
		"there is no heat in unit 4B, when you can",
		"sewage backup in the basement",
		"I think I saw an electrical fire behind the outlet",
	}

	for _, desc := range descriptions {
		result := Classify(desc, "", rules)
		if !result.Emergency {
			t.Fatalf("description %q: expected emergency=true", desc)
		}
		if result.Urgency != domain.UrgencyEmergency {
			t.Fatalf("description %q: expected Emergency urgency, got %s", desc, result.Urgency)
		}
	}
}

func TestClassifyUrgencyPhrases(t *testing.T) {
	rules := domain.DefaultRules()

	tests := []struct {
		description string
		want        domain.Urgency
	}{
		{"dripping faucet, please fix asap", domain.UrgencyHigh},
		{"URGENT: oven not working", domain.UrgencyHigh},
		{"squeaky door, fix it when you can", domain.UrgencyLow},
		{"light out in hallway, not urgent", domain.UrgencyLow},
		{"dishwasher making noise", domain.UrgencyMedium},
	}

	for _, tc := range tests {
		result := Classify(tc.description, "", rules)
		if result.Urgency != tc.want {
			t.Fatalf("description %q: expected urgency %s, got %s", tc.description, tc.want, result.Urgency)
		}
		if result.Emergency {
			t.Fatalf("description %q: expected emergency=false", tc.description)
		}
	}
}

func TestClassifyFirstMatchingRuleWins(t *testing.T) {
	rules := domain.DefaultRules()

	// "leak" belongs to the Plumbing rule, which outranks HVAC in priority
	// order even though "furnace" also appears.
	result := Classify("small leak under the furnace closet", "", rules)
	if result.Category != "Plumbing" {
		t.Fatalf("expected Plumbing (first matching rule), got %s", result.Category)
	}
	if len(result.MatchedKeywords) == 0 {
		t.Fatalf("expected matched keywords to be recorded")
	}
}

func TestClassifyDefaultsToGeneralMaintenance(t *testing.T) {
	rules := domain.DefaultRules()

	result := Classify("the fence gate is wobbly", "", rules)
	if result.Category != domain.CategoryGeneralMaintenance {
		t.Fatalf("expected General Maintenance fallback, got %s", result.Category)
	}
}

func TestClassifyTrustsKnownExternalCategory(t *testing.T) {
	rules := domain.DefaultRules()

	result := Classify("something smells odd near the water heater", "HVAC", rules)
	if result.Category != "HVAC" {
		t.Fatalf("expected external category to be trusted, got %s", result.Category)
	}
}

func TestClassifyRejectsUnknownExternalCategory(t *testing.T) {
	rules := domain.DefaultRules()

	result := Classify("clogged drain in unit 2A", "Landscaping", rules)
	if result.Category != "Plumbing" {
		t.Fatalf("expected keyword fallback for unknown external category, got %s", result.Category)
	}
}

type stubClassifier struct {
	classification Classification
	err            error
	calls          int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (Classification, error) {
	s.calls++
	return s.classification, s.err
}

func TestServiceUsesExternalCategory(t *testing.T) {
	stub := &stubClassifier{classification: Classification{Category: "HVAC", Priority: "high"}}
	svc := NewService(stub, logger.New("development"))

	result := svc.Triage(context.Background(), "strange noise from the vents", domain.DefaultRules())
	if result.Category != "HVAC" {
		t.Fatalf("expected HVAC from classifier, got %s", result.Category)
	}
}

func TestServiceDegradesToKeywordFallback(t *testing.T) {
	stub := &stubClassifier{err: errors.New("upstream 503")}
	svc := NewService(stub, logger.New("development"))

	degraded := false
	svc.SetClassifierErrorHook(func() { degraded = true })

	result := svc.Triage(context.Background(), "toilet keeps running", domain.DefaultRules())
	if result.Category != "Plumbing" {
		t.Fatalf("expected keyword fallback category, got %s", result.Category)
	}
	if stub.calls != 2 {
		t.Fatalf("expected 1 retry (2 calls), got %d", stub.calls)
	}
	if !degraded {
		t.Fatalf("expected classifier error hook to fire")
	}
}

func TestServiceWithoutClassifierIsKeywordOnly(t *testing.T) {
	svc := NewService(nil, logger.New("development"))

	result := svc.Triage(context.Background(), "sparks from the outlet, urgent", domain.DefaultRules())
	if result.Category != "Electrical" {
		t.Fatalf("expected Electrical, got %s", result.Category)
	}
	if result.Urgency != domain.UrgencyHigh {
		t.Fatalf("expected High urgency, got %s", result.Urgency)
	}
}
