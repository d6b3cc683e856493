package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source identifies which backing system a work item originated from.
type Source string

const (
	SourceNative   Source = "native"
	SourceExternal Source = "external"
)

// SenderRole identifies who wrote a communication log entry.
type SenderRole string

const (
	RoleTenant     SenderRole = "tenant"
	RoleOwner      SenderRole = "owner"
	RoleContractor SenderRole = "contractor"
	RoleSystem     SenderRole = "system"
)

// LogEntryType categorizes communication log entries.
type LogEntryType string

const (
	LogEntryMessage    LogEntryType = "message"
	LogEntryStatus     LogEntryType = "status_change"
	LogEntryAssignment LogEntryType = "assignment"
	LogEntryMerge      LogEntryType = "merged_report"
)

// LogEntry is one record in a work item's append-only communication log.
type LogEntry struct {
	Timestamp time.Time    `json:"timestamp"`
	Sender    SenderRole   `json:"sender"`
	Message   string       `json:"message"`
	Type      LogEntryType `json:"type"`
}

// WorkItem is the normalized form of a maintenance request regardless of
// originating source. The run controller owns it exclusively for the duration
// of a run; the store persists it between runs.
type WorkItem struct {
	ID                 uuid.UUID
	Source             Source
	PropertyID         string
	Description        string
	Category           Category // empty until classified
	Status             Status
	ContractorID       *uuid.UUID
	EstimatedCostCents int64
	FinalQuoteCents    int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Log                []LogEntry
}

// AppendLog appends an entry to the communication log. The log is
// append-only; existing entries are never modified.
func (w *WorkItem) AppendLog(sender SenderRole, message string, entryType LogEntryType) {
	w.Log = append(w.Log, LogEntry{
		Timestamp: time.Now(),
		Sender:    sender,
		Message:   message,
		Type:      entryType,
	})
	w.UpdatedAt = time.Now()
}

// Transition moves the work item to the next status if the move is legal.
func (w *WorkItem) Transition(next Status) error {
	if !w.Status.CanTransition(next) {
		return fmt.Errorf("illegal status transition %s -> %s for work item %s", w.Status, next, w.ID)
	}
	w.Status = next
	w.UpdatedAt = time.Now()
	return nil
}

// AssignContractor records a contractor assignment. A work item carries at
// most one active assignment; assigning over an existing different contractor
// is rejected unless the current assignment was cleared first.
func (w *WorkItem) AssignContractor(contractorID uuid.UUID) error {
	if w.ContractorID != nil && *w.ContractorID != contractorID {
		return fmt.Errorf("work item %s already assigned to contractor %s", w.ID, *w.ContractorID)
	}
	w.ContractorID = &contractorID
	w.UpdatedAt = time.Now()
	return nil
}

// ClearContractor removes the current assignment, allowing re-assignment.
func (w *WorkItem) ClearContractor() {
	w.ContractorID = nil
	w.UpdatedAt = time.Now()
}
