package transport

import (
	"time"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/repository"
)

// CreateWorkItemRequest is the request body for reporting a maintenance request
type CreateWorkItemRequest struct {
	PropertyID  string `json:"propertyId" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"required,min=5,max=4000"`
}

// UpdateWorkItemStatusRequest is the request body for a status transition
type UpdateWorkItemStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Reported Classified PendingApproval ContractorAssigned InProgress Completed Cancelled"`
	Note   string `json:"note,omitempty" validate:"max=2000"`
}

// ListWorkItemsRequest is the query parameters for listing work items
type ListWorkItemsRequest struct {
	Status     *string `form:"status" validate:"omitempty,oneof=Reported Classified PendingApproval ContractorAssigned InProgress Completed Cancelled"`
	Category   *string `form:"category"`
	PropertyID *string `form:"propertyId"`
	Page       int     `form:"page" validate:"min=1"`
	PageSize   int     `form:"pageSize" validate:"min=1,max=100"`
}

// LogEntryResponse is one communication log entry
type LogEntryResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
}

// WorkItemResponse is the response body for a work item
type WorkItemResponse struct {
	ID                 uuid.UUID          `json:"id"`
	Source             string             `json:"source"`
	PropertyID         string             `json:"propertyId"`
	Description        string             `json:"description"`
	Category           string             `json:"category,omitempty"`
	Status             string             `json:"status"`
	ContractorID       *uuid.UUID         `json:"contractorId,omitempty"`
	EstimatedCostCents int64              `json:"estimatedCostCents,omitempty"`
	FinalQuoteCents    int64              `json:"finalQuoteCents,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	Log                []LogEntryResponse `json:"log"`
}

// WorkItemListResponse is the paginated work item listing
type WorkItemListResponse struct {
	Items      []WorkItemResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// CreateContractorRequest is the request body for onboarding a contractor
type CreateContractorRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=200"`
	Specialties  []string `json:"specialties" validate:"required,min=1,dive,min=1,max=100"`
	Rating       float64  `json:"rating" validate:"min=0,max=5"`
	Availability string   `json:"availability" validate:"required,oneof=Available Busy Offboarded"`
	Phone        string   `json:"phone,omitempty" validate:"max=32"`
	Email        string   `json:"email,omitempty" validate:"omitempty,email"`
}

// UpdateContractorAvailabilityRequest is the request body for a dispatch
// status change
type UpdateContractorAvailabilityRequest struct {
	Availability string `json:"availability" validate:"required,oneof=Available Busy Offboarded"`
}

// ContractorResponse is the response body for a contractor
type ContractorResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Specialties  []string  `json:"specialties"`
	Rating       float64   `json:"rating"`
	Availability string    `json:"availability"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
}

// TriggerRunRequest is the request body for starting an automation run.
// Mode overrides the configured run mode for this run only.
type TriggerRunRequest struct {
	Mode string `json:"mode,omitempty" validate:"omitempty,oneof=native_only external_only hybrid"`
}

// ItemOutcomeResponse is one per-item result within a run report
type ItemOutcomeResponse struct {
	WorkItemID      uuid.UUID  `json:"workItemId"`
	Source          string     `json:"source"`
	PropertyID      string     `json:"propertyId,omitempty"`
	Outcome         string     `json:"outcome"`
	Category        string     `json:"category,omitempty"`
	Urgency         string     `json:"urgency,omitempty"`
	ContractorID    *uuid.UUID `json:"contractorId,omitempty"`
	ContractorName  string     `json:"contractorName,omitempty"`
	FinalQuoteCents int64      `json:"finalQuoteCents,omitempty"`
	Confidence      int        `json:"confidence,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	MergedIntoID    *uuid.UUID `json:"mergedIntoId,omitempty"`
}

// RunReportResponse is the response body for an automation run
type RunReportResponse struct {
	ID           uuid.UUID             `json:"id"`
	Mode         string                `json:"mode"`
	StartedAt    time.Time             `json:"startedAt"`
	FinishedAt   time.Time             `json:"finishedAt"`
	Processed    int                   `json:"processed"`
	AutoAssigned int                   `json:"autoAssigned"`
	ManualReview int                   `json:"manualReview"`
	Errors       int                   `json:"errors"`
	Merged       int                   `json:"merged"`
	ErrorNote    string                `json:"errorNote,omitempty"`
	Outcomes     []ItemOutcomeResponse `json:"outcomes"`
	Summary      string                `json:"summary"`
}

// ToWorkItemResponse converts a domain work item to its API shape
func ToWorkItemResponse(item domain.WorkItem) WorkItemResponse {
	log := make([]LogEntryResponse, 0, len(item.Log))
	for _, entry := range item.Log {
		log = append(log, LogEntryResponse{
			Timestamp: entry.Timestamp,
			Sender:    string(entry.Sender),
			Message:   entry.Message,
			Type:      string(entry.Type),
		})
	}

	return WorkItemResponse{
		ID:                 item.ID,
		Source:             string(item.Source),
		PropertyID:         item.PropertyID,
		Description:        item.Description,
		Category:           string(item.Category),
		Status:             string(item.Status),
		ContractorID:       item.ContractorID,
		EstimatedCostCents: item.EstimatedCostCents,
		FinalQuoteCents:    item.FinalQuoteCents,
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
		Log:                log,
	}
}

// ToContractorResponse converts a domain contractor to its API shape
func ToContractorResponse(c domain.Contractor) ContractorResponse {
	return ContractorResponse{
		ID:           c.ID,
		Name:         c.Name,
		Specialties:  c.Specialties,
		Rating:       c.Rating,
		Availability: string(c.Availability),
		Phone:        c.Phone,
		Email:        c.Email,
	}
}

func toOutcomeResponses(outcomes []domain.ItemOutcome) []ItemOutcomeResponse {
	out := make([]ItemOutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, ItemOutcomeResponse{
			WorkItemID:      o.WorkItemID,
			Source:          string(o.Source),
			PropertyID:      o.PropertyID,
			Outcome:         string(o.Outcome),
			Category:        string(o.Category),
			Urgency:         string(o.Urgency),
			ContractorID:    o.ContractorID,
			ContractorName:  o.ContractorName,
			FinalQuoteCents: o.FinalQuoteCents,
			Confidence:      o.Confidence,
			Reason:          o.Reason,
			MergedIntoID:    o.MergedIntoID,
		})
	}
	return out
}

// ToRunReportResponse converts a just-finished run report to its API shape
func ToRunReportResponse(report *domain.RunReport, summary string) RunReportResponse {
	return RunReportResponse{
		ID:           report.ID,
		Mode:         string(report.Mode),
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		Processed:    report.Processed(),
		AutoAssigned: report.AutoAssigned(),
		ManualReview: report.ManualReviewNeeded(),
		Errors:       report.Errors(),
		Merged:       report.Merged(),
		ErrorNote:    report.ErrorNote,
		Outcomes:     toOutcomeResponses(report.Outcomes),
		Summary:      summary,
	}
}

// ToRunRecordResponse converts a persisted run record to its API shape
func ToRunRecordResponse(rec repository.RunRecord) RunReportResponse {
	return RunReportResponse{
		ID:           rec.ID,
		Mode:         string(rec.Mode),
		StartedAt:    rec.StartedAt,
		FinishedAt:   rec.FinishedAt,
		Processed:    rec.Processed,
		AutoAssigned: rec.AutoAssigned,
		ManualReview: rec.ManualReview,
		Errors:       rec.Errors,
		Merged:       rec.Merged,
		ErrorNote:    rec.ErrorNote,
		Outcomes:     toOutcomeResponses(rec.Outcomes),
		Summary:      rec.Summary,
	}
}
