package domain

import (
	"fmt"
	"strings"
)

// Category is a validated lookup key into the vendor rule configuration.
// Unknown categories fail at classification time rather than silently
// falling through the pipeline.
type Category string

// CategoryGeneralMaintenance is the fallback bucket when no rule matches.
const CategoryGeneralMaintenance Category = "General Maintenance"

// VendorRule configures classification keywords and pricing for one category.
// Rules are immutable for the duration of a run.
type VendorRule struct {
	Category     Category `yaml:"category"`
	Keywords     []string `yaml:"keywords"`
	MinCostCents int64    `yaml:"minCostCents"`
	MaxCostCents int64    `yaml:"maxCostCents"`
	MarkupPct    float64  `yaml:"markupPct"`
}

// RuleSet is an immutable, ordered vendor rule configuration. Order is the
// classification priority: the first rule with a keyword match wins. Updates
// produce a new RuleSet value; the shared configuration is never mutated.
type RuleSet struct {
	ordered []VendorRule
	byCat   map[Category]VendorRule
}

// NewRuleSet builds a RuleSet from an ordered rule list. Categories must be
// unique and cost ranges sane.
func NewRuleSet(rules []VendorRule) (RuleSet, error) {
	byCat := make(map[Category]VendorRule, len(rules))
	ordered := make([]VendorRule, 0, len(rules))
	for _, rule := range rules {
		if strings.TrimSpace(string(rule.Category)) == "" {
			return RuleSet{}, fmt.Errorf("vendor rule with empty category")
		}
		if _, exists := byCat[rule.Category]; exists {
			return RuleSet{}, fmt.Errorf("duplicate vendor rule for category %q", rule.Category)
		}
		if rule.MinCostCents < 0 || rule.MaxCostCents < rule.MinCostCents {
			return RuleSet{}, fmt.Errorf("invalid cost range for category %q", rule.Category)
		}
		if rule.MarkupPct < 0 {
			return RuleSet{}, fmt.Errorf("negative markup for category %q", rule.Category)
		}
		byCat[rule.Category] = rule
		ordered = append(ordered, rule)
	}
	return RuleSet{ordered: ordered, byCat: byCat}, nil
}

// Rule returns the rule for a category.
func (rs RuleSet) Rule(category Category) (VendorRule, bool) {
	rule, ok := rs.byCat[category]
	return rule, ok
}

// Rules returns the rules in classification priority order.
func (rs RuleSet) Rules() []VendorRule {
	out := make([]VendorRule, len(rs.ordered))
	copy(out, rs.ordered)
	return out
}

// Len returns the number of configured rules.
func (rs RuleSet) Len() int {
	return len(rs.ordered)
}

// WithRule returns a new RuleSet with the given rule added or replaced.
// The receiver is left untouched.
func (rs RuleSet) WithRule(rule VendorRule) (RuleSet, error) {
	rules := make([]VendorRule, 0, len(rs.ordered)+1)
	replaced := false
	for _, existing := range rs.ordered {
		if existing.Category == rule.Category {
			rules = append(rules, rule)
			replaced = true
			continue
		}
		rules = append(rules, existing)
	}
	if !replaced {
		rules = append(rules, rule)
	}
	return NewRuleSet(rules)
}

// DefaultRules returns the built-in vendor rule table used when no rules
// file is configured. Order matters: it is the classification priority.
func DefaultRules() RuleSet {
	rs, err := NewRuleSet([]VendorRule{
		{
			Category:     "Plumbing",
			Keywords:     []string{"leak", "pipe", "drain", "faucet", "toilet", "water heater", "clog"},
			MinCostCents: 15000,
			MaxCostCents: 80000,
			MarkupPct:    15,
		},
		{
			Category:     "Electrical",
			Keywords:     []string{"outlet", "breaker", "wiring", "light fixture", "power", "sparks"},
			MinCostCents: 12000,
			MaxCostCents: 90000,
			MarkupPct:    18,
		},
		{
			Category:     "HVAC",
			Keywords:     []string{"furnace", "heat", "air conditioning", "ac ", "thermostat", "hvac", "cooling"},
			MinCostCents: 20000,
			MaxCostCents: 150000,
			MarkupPct:    20,
		},
		{
			Category:     "Appliance Repair",
			Keywords:     []string{"refrigerator", "dishwasher", "washer", "dryer", "oven", "stove"},
			MinCostCents: 10000,
			MaxCostCents: 60000,
			MarkupPct:    12,
		},
		{
			Category:     "Pest Control",
			Keywords:     []string{"mice", "rats", "roaches", "ants", "bed bugs", "wasps", "termites"},
			MinCostCents: 8000,
			MaxCostCents: 40000,
			MarkupPct:    10,
		},
		{
			Category:     CategoryGeneralMaintenance,
			Keywords:     []string{},
			MinCostCents: 7500,
			MaxCostCents: 35000,
			MarkupPct:    10,
		},
	})
	if err != nil {
		panic("default vendor rules invalid: " + err.Error())
	}
	return rs
}
