// Package notification delivers assignment notifications to contractors.
// All delivery is best-effort from the engine's perspective.
package notification

import (
	"context"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/logger"
)

// Notifier is the delivery port the automation engine calls after an
// auto-assignment.
type Notifier interface {
	NotifyAssigned(ctx context.Context, item domain.WorkItem, contractor domain.Contractor, estimatedCostCents, finalQuoteCents int64) error
}

// LogNotifier writes notifications to the structured log. Used when email is
// disabled and in development environments.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyAssigned(ctx context.Context, item domain.WorkItem, contractor domain.Contractor, estimatedCostCents, finalQuoteCents int64) error {
	n.log.Info("contractor assignment notification",
		"work_item_id", item.ID,
		"property_id", item.PropertyID,
		"category", item.Category,
		"contractor", contractor.Name,
		"estimated_cost_cents", estimatedCostCents,
		"final_quote_cents", finalQuoteCents,
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
