package source

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
)

// AssignmentCall records one Assign invocation against the fake.
type AssignmentCall struct {
	WorkItemID   uuid.UUID
	ContractorID uuid.UUID
	Reasoning    string
}

// StatusCall records one UpdateStatus invocation against the fake.
type StatusCall struct {
	WorkItemID uuid.UUID
	Status     domain.Status
}

// Fake is a deterministic in-memory adapter for tests. Items are returned in
// insertion order and every mutation is recorded for assertions. Error fields
// inject failures per operation.
type Fake struct {
	mu sync.Mutex

	source domain.Source
	items  []domain.WorkItem

	FetchErr  error
	AssignErr error
	StatusErr error

	Assignments   []AssignmentCall
	StatusUpdates []StatusCall
}

func NewFake(src domain.Source, items ...domain.WorkItem) *Fake {
	return &Fake{source: src, items: items}
}

func (f *Fake) Name() domain.Source {
	return f.source
}

func (f *Fake) FetchPending(ctx context.Context) ([]domain.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	out := make([]domain.WorkItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *Fake) Assign(ctx context.Context, workItemID uuid.UUID, contractorID uuid.UUID, reasoning string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AssignErr != nil {
		return f.AssignErr
	}
	f.Assignments = append(f.Assignments, AssignmentCall{
		WorkItemID:   workItemID,
		ContractorID: contractorID,
		Reasoning:    reasoning,
	})
	for i := range f.items {
		if f.items[i].ID == workItemID {
			f.items[i].ContractorID = &contractorID
		}
	}
	return nil
}

func (f *Fake) UpdateStatus(ctx context.Context, workItemID uuid.UUID, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StatusErr != nil {
		return f.StatusErr
	}
	f.StatusUpdates = append(f.StatusUpdates, StatusCall{WorkItemID: workItemID, Status: status})
	for i := range f.items {
		if f.items[i].ID == workItemID {
			f.items[i].Status = status
		}
	}
	return nil
}

// Item returns the current state of a work item held by the fake.
func (f *Fake) Item(id uuid.UUID) (domain.WorkItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.WorkItem{}, false
}

var _ Adapter = (*Fake)(nil)
