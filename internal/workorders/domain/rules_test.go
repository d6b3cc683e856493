package domain

import "testing"

func TestNewRuleSetRejectsDuplicateCategories(t *testing.T) {
	_, err := NewRuleSet([]VendorRule{
		{Category: "Plumbing", MinCostCents: 100, MaxCostCents: 200},
		{Category: "Plumbing", MinCostCents: 100, MaxCostCents: 200},
	})
	if err == nil {
		t.Fatalf("expected duplicate category error")
	}
}

func TestNewRuleSetRejectsInvertedCostRange(t *testing.T) {
	_, err := NewRuleSet([]VendorRule{
		{Category: "Plumbing", MinCostCents: 500, MaxCostCents: 100},
	})
	if err == nil {
		t.Fatalf("expected cost range error")
	}
}

func TestWithRuleDoesNotMutateReceiver(t *testing.T) {
	base := DefaultRules()
	before, ok := base.Rule("Plumbing")
	if !ok {
		t.Fatalf("expected default Plumbing rule")
	}

	updated, err := base.WithRule(VendorRule{
		Category:     "Plumbing",
		Keywords:     []string{"leak"},
		MinCostCents: 1,
		MaxCostCents: 2,
		MarkupPct:    1,
	})
	if err != nil {
		t.Fatalf("WithRule: %v", err)
	}

	after, _ := base.Rule("Plumbing")
	if after.MaxCostCents != before.MaxCostCents {
		t.Fatalf("base rule set mutated by WithRule")
	}

	changed, _ := updated.Rule("Plumbing")
	if changed.MaxCostCents != 2 {
		t.Fatalf("expected updated rule in new rule set, got max=%d", changed.MaxCostCents)
	}
	if updated.Len() != base.Len() {
		t.Fatalf("replacement must not change rule count: got %d want %d", updated.Len(), base.Len())
	}
}

func TestWithRuleAppendsNewCategoryLast(t *testing.T) {
	base := DefaultRules()
	updated, err := base.WithRule(VendorRule{
		Category:     "Roofing",
		Keywords:     []string{"roof", "shingle"},
		MinCostCents: 50000,
		MaxCostCents: 500000,
		MarkupPct:    15,
	})
	if err != nil {
		t.Fatalf("WithRule: %v", err)
	}

	rules := updated.Rules()
	if rules[len(rules)-1].Category != "Roofing" {
		t.Fatalf("expected new category appended at lowest priority")
	}
	if _, ok := base.Rule("Roofing"); ok {
		t.Fatalf("base rule set mutated by WithRule")
	}
}
