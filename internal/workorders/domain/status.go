// Package domain provides core business rules for the work-orders bounded context.
package domain

import "fmt"

// Status is the shared work-item lifecycle vocabulary. Source adapters
// translate their native vocabularies to these values at the boundary.
type Status string

const (
	StatusReported           Status = "Reported"
	StatusClassified         Status = "Classified"
	StatusPendingApproval    Status = "PendingApproval"
	StatusContractorAssigned Status = "ContractorAssigned"
	StatusInProgress         Status = "InProgress"
	StatusCompleted          Status = "Completed"
	StatusCancelled          Status = "Cancelled"
)

// validTransitions encodes the status state machine. The engine itself only
// drives Classified -> {ContractorAssigned, PendingApproval}; everything else
// arrives via external status updates.
var validTransitions = map[Status][]Status{
	StatusReported:           {StatusClassified},
	StatusClassified:         {StatusContractorAssigned, StatusPendingApproval},
	StatusPendingApproval:    {StatusContractorAssigned, StatusCancelled},
	StatusContractorAssigned: {StatusInProgress, StatusCancelled},
	StatusInProgress:         {StatusCompleted, StatusCancelled},
}

// activeStatuses are the statuses that count toward a contractor's live
// workload and toward duplicate detection of open work.
var activeStatuses = map[Status]bool{
	StatusReported:           true,
	StatusClassified:         true,
	StatusContractorAssigned: true,
	StatusInProgress:         true,
}

// ParseStatus validates a shared-vocabulary status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusReported, StatusClassified, StatusPendingApproval,
		StatusContractorAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown work item status %q", raw)
}

// IsTerminal returns true for statuses that never transition again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CountsAsActive returns true if the status contributes to contractor
// workload computation.
func (s Status) CountsAsActive() bool {
	return activeStatuses[s]
}

// CanTransition reports whether moving from s to next is a legal transition.
// Terminal states never transition.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
