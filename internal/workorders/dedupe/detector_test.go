package dedupe

import (
	"testing"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
)

func item(property string, category domain.Category, status domain.Status) domain.WorkItem {
	return domain.WorkItem{
		ID:         uuid.New(),
		Source:     domain.SourceNative,
		PropertyID: property,
		Category:   category,
		Status:     status,
	}
}

func TestFindOpenDuplicateMatchesReportedAndInProgress(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusReported, domain.StatusInProgress} {
		existing := item("P1", "Plumbing", status)
		candidate := item("P1", "Plumbing", domain.StatusReported)

		found, ok := FindOpenDuplicate(candidate, []domain.WorkItem{existing})
		if !ok {
			t.Fatalf("status %s: expected duplicate to be found", status)
		}
		if found.ID != existing.ID {
			t.Fatalf("status %s: wrong duplicate returned", status)
		}
	}
}

func TestFindOpenDuplicateIgnoresOtherStatuses(t *testing.T) {
	statuses := []domain.Status{
		domain.StatusClassified, domain.StatusPendingApproval,
		domain.StatusContractorAssigned, domain.StatusCompleted, domain.StatusCancelled,
	}
	for _, status := range statuses {
		existing := item("P1", "Plumbing", status)
		candidate := item("P1", "Plumbing", domain.StatusReported)

		if _, ok := FindOpenDuplicate(candidate, []domain.WorkItem{existing}); ok {
			t.Fatalf("status %s must not block a new work item", status)
		}
	}
}

func TestFindOpenDuplicateRequiresSamePropertyAndCategory(t *testing.T) {
	pool := []domain.WorkItem{
		item("P2", "Plumbing", domain.StatusReported),
		item("P1", "Electrical", domain.StatusReported),
	}
	candidate := item("P1", "Plumbing", domain.StatusReported)

	if _, ok := FindOpenDuplicate(candidate, pool); ok {
		t.Fatalf("expected no duplicate across different property/category")
	}
}

func TestFindOpenDuplicateSkipsSelf(t *testing.T) {
	candidate := item("P1", "Plumbing", domain.StatusReported)

	if _, ok := FindOpenDuplicate(candidate, []domain.WorkItem{candidate}); ok {
		t.Fatalf("a work item must not be its own duplicate")
	}
}

func TestMergeAppendsToExistingLog(t *testing.T) {
	existing := item("P1", "Plumbing", domain.StatusReported)
	duplicate := item("P1", "Plumbing", domain.StatusReported)
	duplicate.Description = "water is still dripping under the sink"

	Merge(&existing, duplicate)

	if len(existing.Log) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(existing.Log))
	}
	entry := existing.Log[0]
	if entry.Type != domain.LogEntryMerge {
		t.Fatalf("expected merge entry type, got %s", entry.Type)
	}
	if entry.Sender != domain.RoleSystem {
		t.Fatalf("expected system sender, got %s", entry.Sender)
	}
}
