package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/apperr"
	"propertyops_backend/platform/logger"
)

type stubStore struct {
	items   map[uuid.UUID]domain.WorkItem
	listErr error
	saved   []domain.WorkItem
}

func newStubStore(items ...domain.WorkItem) *stubStore {
	s := &stubStore{items: make(map[uuid.UUID]domain.WorkItem)}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *stubStore) ListByStatuses(ctx context.Context, statuses []domain.Status) ([]domain.WorkItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.WorkItem
	for _, item := range s.items {
		for _, status := range statuses {
			if item.Status == status {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func (s *stubStore) GetWorkItem(ctx context.Context, id uuid.UUID) (domain.WorkItem, error) {
	item, ok := s.items[id]
	if !ok {
		return domain.WorkItem{}, apperr.NotFound("work item not found")
	}
	return item, nil
}

func (s *stubStore) SaveWorkItem(ctx context.Context, item domain.WorkItem) error {
	s.items[item.ID] = item
	s.saved = append(s.saved, item)
	return nil
}

func TestNativeFetchPendingWrapsStoreFailure(t *testing.T) {
	store := newStubStore()
	store.listErr = errors.New("connection refused")
	adapter := NewNativeAdapter(store)

	_, err := adapter.FetchPending(context.Background())
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected KindUnavailable, got %v", err)
	}
}

func TestNativeAssignIsIdempotentForSameContractor(t *testing.T) {
	item := domain.WorkItem{ID: uuid.New(), Status: domain.StatusClassified}
	store := newStubStore(item)
	adapter := NewNativeAdapter(store)
	contractorID := uuid.New()

	for i := 0; i < 2; i++ {
		if err := adapter.Assign(context.Background(), item.ID, contractorID, "best available plumber"); err != nil {
			t.Fatalf("assign attempt %d: %v", i+1, err)
		}
	}

	saved := store.items[item.ID]
	if saved.ContractorID == nil || *saved.ContractorID != contractorID {
		t.Fatalf("expected contractor %s recorded", contractorID)
	}
	// Only the first assign writes the reasoning entry.
	if len(saved.Log) != 1 {
		t.Fatalf("expected 1 log entry after retried assign, got %d", len(saved.Log))
	}
}

func TestNativeAssignRejectsDifferentContractor(t *testing.T) {
	item := domain.WorkItem{ID: uuid.New(), Status: domain.StatusClassified}
	store := newStubStore(item)
	adapter := NewNativeAdapter(store)

	if err := adapter.Assign(context.Background(), item.ID, uuid.New(), ""); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if err := adapter.Assign(context.Background(), item.ID, uuid.New(), ""); err == nil {
		t.Fatalf("expected second assign with a different contractor to fail")
	}
}

func TestNativeUpdateStatusSameStatusIsNoOp(t *testing.T) {
	item := domain.WorkItem{ID: uuid.New(), Status: domain.StatusClassified}
	store := newStubStore(item)
	adapter := NewNativeAdapter(store)

	if err := adapter.UpdateStatus(context.Background(), item.ID, domain.StatusClassified); err != nil {
		t.Fatalf("same-status update: %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected no write for a same-status update")
	}
}

func TestExternalStatusVocabularyRoundTrips(t *testing.T) {
	for wire, status := range externalStatusIn {
		if externalStatusOut[status] != wire {
			t.Fatalf("status %s: expected wire state %q, got %q", status, wire, externalStatusOut[status])
		}
	}
}

func TestExternalFetchPendingTranslatesAndSkipsUnknownStates(t *testing.T) {
	knownID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"` + knownID.String() + `","property_ref":"P1","details":"no heat upstairs","state":"new"},
			{"id":"` + uuid.NewString() + `","property_ref":"P2","details":"mystery","state":"limbo"}
		]`))
	}))
	defer server.Close()

	adapter := NewExternalAdapter(server.URL, "test-key", logger.New("test"))
	items, err := adapter.FetchPending(context.Background())
	if err != nil {
		t.Fatalf("fetch pending: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected unknown state to be skipped, got %d items", len(items))
	}
	if items[0].ID != knownID || items[0].Status != domain.StatusReported || items[0].Source != domain.SourceExternal {
		t.Fatalf("unexpected translation: %+v", items[0])
	}
}

func TestExternalAssignRetriesOnce(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	adapter := NewExternalAdapter(server.URL, "test-key", logger.New("test"))
	if err := adapter.Assign(context.Background(), uuid.New(), uuid.New(), "emergency dispatch"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestExternalAssignGivesUpAfterRetryBudget(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewExternalAdapter(server.URL, "test-key", logger.New("test"))
	err := adapter.Assign(context.Background(), uuid.New(), uuid.New(), "")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected KindUnavailable after exhausted retries, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestExternalUpdateStatusRejectsUntranslatableStatus(t *testing.T) {
	adapter := NewExternalAdapter("http://unused", "test-key", logger.New("test"))
	err := adapter.UpdateStatus(context.Background(), uuid.New(), domain.Status("weird"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}
