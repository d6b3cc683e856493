// Package dedupe prevents a second open work order for the same property and
// category while one is already active.
package dedupe

import (
	"fmt"

	"propertyops_backend/internal/workorders/domain"
)

// openDuplicateStatuses are the statuses under which an existing work item
// blocks a new one for the same property and category.
var openDuplicateStatuses = map[domain.Status]bool{
	domain.StatusReported:   true,
	domain.StatusInProgress: true,
}

// FindOpenDuplicate scans the active pool for an open work item with the same
// property and category as the candidate. The candidate itself is skipped.
func FindOpenDuplicate(candidate domain.WorkItem, pool []domain.WorkItem) (*domain.WorkItem, bool) {
	if candidate.Category == "" {
		return nil, false
	}
	for i := range pool {
		existing := &pool[i]
		if existing.ID == candidate.ID {
			continue
		}
		if existing.PropertyID != candidate.PropertyID || existing.Category != candidate.Category {
			continue
		}
		if openDuplicateStatuses[existing.Status] {
			return existing, true
		}
	}
	return nil, false
}

// Merge folds a duplicate report into the existing work item: the new
// description is appended to the existing item's communication log so the
// second report is preserved without dispatching a second contractor or
// billing twice.
func Merge(existing *domain.WorkItem, duplicate domain.WorkItem) {
	message := fmt.Sprintf("Duplicate report received via %s: %s", duplicate.Source, duplicate.Description)
	existing.AppendLog(domain.RoleSystem, message, domain.LogEntryMerge)
}
