// Package policy decides whether a scored, priced maintenance request is
// auto-assigned, routed to manual review, or held for owner approval.
package policy

import (
	"fmt"
	"math"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/estimate"
	"propertyops_backend/internal/workorders/scoring"
)

// Decision is the routing outcome for one request.
type Decision string

const (
	DecisionAutoAssign          Decision = "AutoAssign"
	DecisionNeedsReview         Decision = "NeedsReview"
	DecisionOwnerApprovalNeeded Decision = "OwnerApprovalNeeded"
)

// ReasonNoContractor is the review reason when the eligible pool is empty.
const ReasonNoContractor = "no suitable contractor available"

// Config carries the thresholds the policy evaluates against.
type Config struct {
	// AutoAssignThreshold is the minimum confidence (50-100) required to
	// skip human review.
	AutoAssignThreshold int
	// OwnerApprovalThresholdCents is the quote ceiling above which the owner
	// must approve, regardless of confidence or urgency.
	OwnerApprovalThresholdCents int64
	// EmergencyAutoAssign lets emergencies bypass the confidence gate.
	// Emergencies never bypass the owner-approval cost gate: large spend is
	// never auto-committed unapproved, emergency or not.
	EmergencyAutoAssign bool
}

// Evaluate applies the decision rules in order; the first match wins.
//
//  1. No contractor found: NeedsReview.
//  2. Final quote above the owner-approval ceiling: OwnerApprovalNeeded.
//  3. Confidence below the auto-assign threshold (and not an emergency with
//     emergency bypass enabled): NeedsReview.
//  4. Otherwise: AutoAssign.
func Evaluate(tri domain.TriageResult, candidates []scoring.Candidate, quote estimate.Quote, cfg Config) (Decision, *domain.AssignmentResult, string) {
	if len(candidates) == 0 {
		return DecisionNeedsReview, nil, ReasonNoContractor
	}

	top := candidates[0]
	confidence := Confidence(top.Contractor.Rating, len(candidates), top.ActiveJobs)

	result := &domain.AssignmentResult{
		ContractorID:       top.Contractor.ID,
		ContractorName:     top.Contractor.Name,
		EstimatedCostCents: quote.EstimatedCostCents,
		MarkupPct:          quote.MarkupPct,
		FinalQuoteCents:    quote.FinalQuoteCents,
		Confidence:         confidence,
		Reasoning: fmt.Sprintf("%s (rating %.1f, %d active jobs) selected from %d eligible for %s at $%d",
			top.Contractor.Name, top.Contractor.Rating, top.ActiveJobs, len(candidates), tri.Category, quote.FinalQuoteCents/100),
	}

	if quote.FinalQuoteCents > cfg.OwnerApprovalThresholdCents {
		reason := fmt.Sprintf("final quote $%d exceeds owner approval threshold $%d",
			quote.FinalQuoteCents/100, cfg.OwnerApprovalThresholdCents/100)
		return DecisionOwnerApprovalNeeded, result, reason
	}

	emergencyBypass := tri.Emergency && cfg.EmergencyAutoAssign
	if confidence < cfg.AutoAssignThreshold && !emergencyBypass {
		reason := fmt.Sprintf("confidence %d below auto-assign threshold %d", confidence, cfg.AutoAssignThreshold)
		return DecisionNeedsReview, result, reason
	}

	return DecisionAutoAssign, result, ""
}

// Confidence blends contractor quality, market depth and contractor headroom
// into a 0-100 trust score for the automatic pick:
// rating/5*50 + (eligible > 2 ? 30 : 15) + (activeJobs < 3 ? 20 : 10),
// capped at 100.
func Confidence(rating float64, eligibleCount, activeJobs int) int {
	score := rating / 5 * 50

	if eligibleCount > 2 {
		score += 30
	} else {
		score += 15
	}

	if activeJobs < 3 {
		score += 20
	} else {
		score += 10
	}

	confidence := int(math.Round(score))
	if confidence > 100 {
		return 100
	}
	if confidence < 0 {
		return 0
	}
	return confidence
}
