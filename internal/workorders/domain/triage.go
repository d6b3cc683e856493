package domain

import "github.com/google/uuid"

// Urgency is the triage urgency level of a maintenance request.
type Urgency string

const (
	UrgencyLow       Urgency = "Low"
	UrgencyMedium    Urgency = "Medium"
	UrgencyHigh      Urgency = "High"
	UrgencyEmergency Urgency = "Emergency"
)

// TriageResult is the structured classification of a free-text description.
type TriageResult struct {
	Category        Category
	Urgency         Urgency
	MatchedKeywords []string
	Emergency       bool
}

// AssignmentResult captures a contractor selection together with pricing and
// the confidence the engine places in the automatic pick.
type AssignmentResult struct {
	ContractorID       uuid.UUID
	ContractorName     string
	EstimatedCostCents int64
	MarkupPct          float64
	FinalQuoteCents    int64
	Confidence         int // 0-100
	Reasoning          string
}
