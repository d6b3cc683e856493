// Package estimate computes cost estimates and final quotes for classified
// maintenance requests.
package estimate

import (
	"math"

	"propertyops_backend/internal/workorders/domain"
)

// Urgency premiums applied to the rule's cost range. Emergency and High
// urgency price from the top of the range instead of the midpoint.
const (
	emergencyPremium = 1.25
	highPremium      = 1.10
)

// Quote is the priced output for one request. Amounts are whole-dollar
// values stored in cents: quoting happens at dollar granularity.
type Quote struct {
	EstimatedCostCents int64 // rounded pre-markup base, shown to the owner
	FinalQuoteCents    int64 // post-markup number offered to the contractor
	MarkupPct          float64
}

// Estimate prices a request from its vendor rule and triage urgency.
//
// Base is the midpoint of the rule's cost range; Emergency raises it to
// max*1.25 and High to max*1.10. The final quote applies the per-category
// markup on top of the base: round(base * (1 + markup/100)).
func Estimate(rule domain.VendorRule, urgency domain.Urgency) Quote {
	baseDollars := baseForUrgency(rule, urgency)

	estimated := math.Round(baseDollars)
	final := math.Round(baseDollars * (1 + rule.MarkupPct/100))

	return Quote{
		EstimatedCostCents: int64(estimated) * 100,
		FinalQuoteCents:    int64(final) * 100,
		MarkupPct:          rule.MarkupPct,
	}
}

func baseForUrgency(rule domain.VendorRule, urgency domain.Urgency) float64 {
	maxDollars := float64(rule.MaxCostCents) / 100

	switch urgency {
	case domain.UrgencyEmergency:
		return maxDollars * emergencyPremium
	case domain.UrgencyHigh:
		return maxDollars * highPremium
	default:
		return (float64(rule.MinCostCents) + float64(rule.MaxCostCents)) / 2 / 100
	}
}
