package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunMode selects which source adapters an automation run processes.
type RunMode string

const (
	RunModeNativeOnly   RunMode = "native_only"
	RunModeExternalOnly RunMode = "external_only"
	RunModeHybrid       RunMode = "hybrid"
)

// ParseRunMode validates a run mode string.
func ParseRunMode(raw string) (RunMode, bool) {
	m := RunMode(raw)
	switch m {
	case RunModeNativeOnly, RunModeExternalOnly, RunModeHybrid:
		return m, true
	}
	return "", false
}

// OutcomeType is the per-item result of an automation run.
type OutcomeType string

const (
	OutcomeAutoAssigned        OutcomeType = "AutoAssigned"
	OutcomeNeedsReview         OutcomeType = "NeedsReview"
	OutcomeOwnerApprovalNeeded OutcomeType = "OwnerApprovalNeeded"
	OutcomeMerged              OutcomeType = "Merged"
	OutcomeError               OutcomeType = "Error"
)

// ItemOutcome records what happened to one work item during a run.
type ItemOutcome struct {
	WorkItemID      uuid.UUID
	Source          Source
	PropertyID      string
	Outcome         OutcomeType
	Category        Category
	Urgency         Urgency
	ContractorID    *uuid.UUID
	ContractorName  string
	FinalQuoteCents int64
	Confidence      int
	Reason          string
	MergedIntoID    *uuid.UUID // set for Merged outcomes
}

// RunReport aggregates the outcomes of one automation run. It is created at
// run start, appended to during the run, and immutable once Finish is called.
type RunReport struct {
	ID         uuid.UUID
	Mode       RunMode
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []ItemOutcome
	ErrorNote  string // run-level note, e.g. total adapter unavailability

	finished bool
}

// NewRunReport starts a report for a run in the given mode.
func NewRunReport(mode RunMode) *RunReport {
	return &RunReport{
		ID:        uuid.New(),
		Mode:      mode,
		StartedAt: time.Now(),
	}
}

// Append records an outcome. Appends after Finish are dropped.
func (r *RunReport) Append(outcome ItemOutcome) {
	if r.finished {
		return
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// SetErrorNote records a run-level error note, e.g. when a source adapter is
// entirely unavailable at run start.
func (r *RunReport) SetErrorNote(note string) {
	if r.finished {
		return
	}
	r.ErrorNote = note
}

// Finish seals the report.
func (r *RunReport) Finish() {
	if r.finished {
		return
	}
	r.FinishedAt = time.Now()
	r.finished = true
}

// Finished reports whether the run has been sealed.
func (r *RunReport) Finished() bool {
	return r.finished
}

// Processed counts non-duplicate items handled by the run. Merged outcomes
// are reported but do not count as processed.
func (r *RunReport) Processed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome != OutcomeMerged {
			n++
		}
	}
	return n
}

// AutoAssigned counts items auto-assigned to a contractor.
func (r *RunReport) AutoAssigned() int {
	return r.count(OutcomeAutoAssigned)
}

// ManualReviewNeeded counts items routed to a human, either for review or for
// owner cost approval.
func (r *RunReport) ManualReviewNeeded() int {
	return r.count(OutcomeNeedsReview) + r.count(OutcomeOwnerApprovalNeeded)
}

// Errors counts items that failed processing.
func (r *RunReport) Errors() int {
	return r.count(OutcomeError)
}

// Merged counts duplicate reports folded into existing work items.
func (r *RunReport) Merged() int {
	return r.count(OutcomeMerged)
}

func (r *RunReport) count(t OutcomeType) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome == t {
			n++
		}
	}
	return n
}
