// Package source abstracts the backing work-order systems behind a uniform
// fetch/assign/update contract so the automation engine never deals with a
// specific system's vocabulary or transport.
package source

import (
	"context"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
)

// Adapter is the gateway contract one backing system implements.
//
// FetchPending is an idempotent read. Assign is keyed by work-item id and
// must be safe to retry: re-assigning the same contractor to the same item is
// a no-op, not a duplicate dispatch. Implementations translate their own
// status vocabulary to and from the shared state machine at this boundary.
type Adapter interface {
	Name() domain.Source
	FetchPending(ctx context.Context) ([]domain.WorkItem, error)
	Assign(ctx context.Context, workItemID uuid.UUID, contractorID uuid.UUID, reasoning string) error
	UpdateStatus(ctx context.Context, workItemID uuid.UUID, status domain.Status) error
}
