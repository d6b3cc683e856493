package source

import (
	"context"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/apperr"
)

// Store is the persistence surface the native adapter needs. The Postgres
// repository satisfies it.
type Store interface {
	ListByStatuses(ctx context.Context, statuses []domain.Status) ([]domain.WorkItem, error)
	GetWorkItem(ctx context.Context, id uuid.UUID) (domain.WorkItem, error)
	SaveWorkItem(ctx context.Context, item domain.WorkItem) error
}

// NativeAdapter serves work items reported directly through the portal. It
// speaks the shared status vocabulary natively, so no translation happens
// here.
type NativeAdapter struct {
	store Store
}

func NewNativeAdapter(store Store) *NativeAdapter {
	return &NativeAdapter{store: store}
}

func (a *NativeAdapter) Name() domain.Source {
	return domain.SourceNative
}

// FetchPending returns items awaiting triage. Reported items are included so
// a run can pick up requests the intake flow has not classified yet.
func (a *NativeAdapter) FetchPending(ctx context.Context) ([]domain.WorkItem, error) {
	items, err := a.store.ListByStatuses(ctx, []domain.Status{domain.StatusReported, domain.StatusClassified})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "fetch pending native work items", err)
	}
	return items, nil
}

func (a *NativeAdapter) Assign(ctx context.Context, workItemID uuid.UUID, contractorID uuid.UUID, reasoning string) error {
	item, err := a.store.GetWorkItem(ctx, workItemID)
	if err != nil {
		return err
	}
	alreadyAssigned := item.ContractorID != nil && *item.ContractorID == contractorID
	if err := item.AssignContractor(contractorID); err != nil {
		return err
	}
	if !alreadyAssigned && reasoning != "" {
		item.AppendLog(domain.RoleSystem, reasoning, domain.LogEntryAssignment)
	}
	return a.store.SaveWorkItem(ctx, item)
}

func (a *NativeAdapter) UpdateStatus(ctx context.Context, workItemID uuid.UUID, status domain.Status) error {
	item, err := a.store.GetWorkItem(ctx, workItemID)
	if err != nil {
		return err
	}
	if item.Status == status {
		return nil
	}
	if err := item.Transition(status); err != nil {
		return err
	}
	return a.store.SaveWorkItem(ctx, item)
}

var _ Adapter = (*NativeAdapter)(nil)
