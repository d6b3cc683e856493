// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/google/uuid"

	"propertyops_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Work Order Domain Events
// =============================================================================

// WorkOrderReported is published when a new maintenance request enters the
// native queue.
type WorkOrderReported struct {
	BaseEvent
	WorkItemID  uuid.UUID `json:"workItemId"`
	PropertyID  string    `json:"propertyId"`
	Description string    `json:"description"`
}

func (e WorkOrderReported) EventName() string { return "workorders.reported" }

// WorkOrderAutoAssigned is published when the automation engine assigns a
// contractor without human involvement.
type WorkOrderAutoAssigned struct {
	BaseEvent
	WorkItemID      uuid.UUID `json:"workItemId"`
	PropertyID      string    `json:"propertyId"`
	ContractorID    uuid.UUID `json:"contractorId"`
	ContractorName  string    `json:"contractorName"`
	Category        string    `json:"category"`
	Urgency         string    `json:"urgency"`
	FinalQuoteCents int64     `json:"finalQuoteCents"`
	Confidence      int       `json:"confidence"`
}

func (e WorkOrderAutoAssigned) EventName() string { return "workorders.auto_assigned" }

// ManualReviewRequired is published when the engine routes a work item to a
// human, either for review or for owner cost approval.
type ManualReviewRequired struct {
	BaseEvent
	WorkItemID      uuid.UUID `json:"workItemId"`
	PropertyID      string    `json:"propertyId"`
	Category        string    `json:"category"`
	Outcome         string    `json:"outcome"` // "NeedsReview" or "OwnerApprovalNeeded"
	Reason          string    `json:"reason"`
	FinalQuoteCents int64     `json:"finalQuoteCents,omitempty"`
}

func (e ManualReviewRequired) EventName() string { return "workorders.manual_review.required" }

// WorkOrderMerged is published when a duplicate report is folded into an
// existing open work item.
type WorkOrderMerged struct {
	BaseEvent
	WorkItemID   uuid.UUID `json:"workItemId"`
	MergedIntoID uuid.UUID `json:"mergedIntoId"`
	PropertyID   string    `json:"propertyId"`
	Category     string    `json:"category"`
}

func (e WorkOrderMerged) EventName() string { return "workorders.merged" }

// WorkOrderStatusChanged is published when a work item transitions status
// outside an automation run (owner approval, contractor updates).
type WorkOrderStatusChanged struct {
	BaseEvent
	WorkItemID uuid.UUID `json:"workItemId"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
	ActorRole  string    `json:"actorRole"`
}

func (e WorkOrderStatusChanged) EventName() string { return "workorders.status.changed" }

// =============================================================================
// Automation Run Domain Events
// =============================================================================

// AutomationRunCompleted is published when a run finishes, successfully or
// not. Handlers use it for archiving and operator notification.
type AutomationRunCompleted struct {
	BaseEvent
	RunID        uuid.UUID `json:"runId"`
	Mode         string    `json:"mode"`
	Processed    int       `json:"processed"`
	AutoAssigned int       `json:"autoAssigned"`
	ManualReview int       `json:"manualReview"`
	Errors       int       `json:"errors"`
	Merged       int       `json:"merged"`
	ErrorNote    string    `json:"errorNote,omitempty"`
	Summary      string    `json:"summary"`
}

func (e AutomationRunCompleted) EventName() string { return "automation.run.completed" }
