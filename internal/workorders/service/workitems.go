package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"propertyops_backend/internal/events"
	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/repository"
	"propertyops_backend/internal/workorders/transport"
	"propertyops_backend/platform/apperr"
)

// CreateWorkItem records a new maintenance request in the native queue. The
// description doubles as the first entry of the communication log.
func (s *Service) CreateWorkItem(ctx context.Context, req transport.CreateWorkItemRequest) (transport.WorkItemResponse, error) {
	now := time.Now()
	item := domain.WorkItem{
		ID:          uuid.New(),
		Source:      domain.SourceNative,
		PropertyID:  req.PropertyID,
		Description: req.Description,
		Status:      domain.StatusReported,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	item.AppendLog(domain.RoleTenant, req.Description, domain.LogEntryMessage)

	if err := s.repo.SaveWorkItem(ctx, item); err != nil {
		return transport.WorkItemResponse{}, apperr.Wrap(apperr.KindInternal, "create work item", err)
	}

	s.bus.Publish(ctx, events.WorkOrderReported{
		BaseEvent:   events.NewBaseEvent(),
		WorkItemID:  item.ID,
		PropertyID:  item.PropertyID,
		Description: item.Description,
	})

	return transport.ToWorkItemResponse(item), nil
}

// GetWorkItem retrieves a single work item
func (s *Service) GetWorkItem(ctx context.Context, id uuid.UUID) (transport.WorkItemResponse, error) {
	item, err := s.repo.GetWorkItem(ctx, id)
	if err != nil {
		return transport.WorkItemResponse{}, err
	}
	return transport.ToWorkItemResponse(item), nil
}

// ListWorkItems retrieves work items with optional filtering
func (s *Service) ListWorkItems(ctx context.Context, req transport.ListWorkItemsRequest) (transport.WorkItemListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	result, err := s.repo.ListWorkItems(ctx, repository.ListWorkItemsParams{
		Status:     req.Status,
		Category:   req.Category,
		PropertyID: req.PropertyID,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return transport.WorkItemListResponse{}, apperr.Wrap(apperr.KindInternal, "list work items", err)
	}

	items := make([]transport.WorkItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, transport.ToWorkItemResponse(item))
	}

	return transport.WorkItemListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// UpdateWorkItemStatus applies a status transition requested from outside an
// automation run (owner approval, contractor progress updates). Illegal
// transitions are rejected without touching the item.
func (s *Service) UpdateWorkItemStatus(ctx context.Context, id uuid.UUID, actorRole string, req transport.UpdateWorkItemStatusRequest) (transport.WorkItemResponse, error) {
	next, err := domain.ParseStatus(req.Status)
	if err != nil {
		return transport.WorkItemResponse{}, apperr.BadRequest("unknown work item status")
	}

	item, err := s.repo.GetWorkItem(ctx, id)
	if err != nil {
		return transport.WorkItemResponse{}, err
	}

	oldStatus := item.Status
	if err := item.Transition(next); err != nil {
		return transport.WorkItemResponse{}, apperr.Conflict(err.Error())
	}
	if req.Note != "" {
		item.AppendLog(domain.SenderRole(actorRole), req.Note, domain.LogEntryStatus)
	}

	if err := s.repo.SaveWorkItem(ctx, item); err != nil {
		return transport.WorkItemResponse{}, apperr.Wrap(apperr.KindInternal, "update work item status", err)
	}

	s.bus.Publish(ctx, events.WorkOrderStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		WorkItemID: item.ID,
		OldStatus:  string(oldStatus),
		NewStatus:  string(item.Status),
		ActorRole:  actorRole,
	})

	return transport.ToWorkItemResponse(item), nil
}
