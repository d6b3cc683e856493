package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadVendorRulesEmptyPathReturnsDefaults(t *testing.T) {
	rs, err := LoadVendorRules("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if _, ok := rs.Rule("Plumbing"); !ok {
		t.Fatalf("expected default rules to include Plumbing")
	}
}

func TestLoadVendorRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - category: Roofing
    keywords: [roof, shingle, gutter]
    minCostCents: 30000
    maxCostCents: 200000
    markupPct: 22
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rs, err := LoadVendorRules(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	rule, ok := rs.Rule("Roofing")
	if !ok {
		t.Fatalf("expected Roofing rule")
	}
	if rule.MaxCostCents != 200000 || rule.MarkupPct != 22 {
		t.Fatalf("unexpected rule values: %+v", rule)
	}
	if len(rule.Keywords) != 3 {
		t.Fatalf("expected 3 keywords, got %d", len(rule.Keywords))
	}
}

func TestLoadVendorRulesRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	// Duplicate category should be rejected.
	content := `rules:
  - category: Plumbing
    minCostCents: 100
    maxCostCents: 200
    markupPct: 10
  - category: Plumbing
    minCostCents: 100
    maxCostCents: 200
    markupPct: 10
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	if _, err := LoadVendorRules(path); err == nil {
		t.Fatalf("expected duplicate category to be rejected")
	}
}
