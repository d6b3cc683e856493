package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/apperr"
	"propertyops_backend/platform/logger"
)

const (
	externalRequestTimeout = 10 * time.Second
	externalRetryBackoff   = 500 * time.Millisecond
	externalMaxAttempts    = 2
)

// externalStatusIn maps the external system's state vocabulary to the shared
// status machine. externalStatusOut is the inverse, built at init.
var externalStatusIn = map[string]domain.Status{
	"new":            domain.StatusReported,
	"triaged":        domain.StatusClassified,
	"awaiting_owner": domain.StatusPendingApproval,
	"dispatched":     domain.StatusContractorAssigned,
	"working":        domain.StatusInProgress,
	"done":           domain.StatusCompleted,
	"void":           domain.StatusCancelled,
}

var externalStatusOut = func() map[domain.Status]string {
	out := make(map[domain.Status]string, len(externalStatusIn))
	for wire, status := range externalStatusIn {
		out[status] = wire
	}
	return out
}()

// ExternalAdapter talks to the partner work-order system over HTTP. Requests
// are rate limited and retried once before the caller sees an error.
type ExternalAdapter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	log        *logger.Logger
}

func NewExternalAdapter(baseURL, apiKey string, log *logger.Logger) *ExternalAdapter {
	return &ExternalAdapter{
		httpClient: &http.Client{Timeout: externalRequestTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		log:        log,
	}
}

func (a *ExternalAdapter) Name() domain.Source {
	return domain.SourceExternal
}

// externalWorkOrder is the wire shape of one work order in the partner API.
type externalWorkOrder struct {
	ID          uuid.UUID `json:"id"`
	PropertyRef string    `json:"property_ref"`
	Details     string    `json:"details"`
	Category    string    `json:"category,omitempty"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a *ExternalAdapter) FetchPending(ctx context.Context) ([]domain.WorkItem, error) {
	reqURL := fmt.Sprintf("%s/api/v1/work-orders?state=new&state=triaged", a.baseURL)

	var orders []externalWorkOrder
	err := a.doRequest(ctx, http.MethodGet, reqURL, nil, &orders)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "fetch pending external work orders", err)
	}

	items := make([]domain.WorkItem, 0, len(orders))
	for _, order := range orders {
		status, ok := externalStatusIn[order.State]
		if !ok {
			a.log.Warn("external work order has unknown state, skipping",
				"work_order_id", order.ID, "state", order.State)
			continue
		}
		items = append(items, domain.WorkItem{
			ID:          order.ID,
			Source:      domain.SourceExternal,
			PropertyID:  order.PropertyRef,
			Description: order.Details,
			Category:    domain.Category(order.Category),
			Status:      status,
			CreatedAt:   order.CreatedAt,
			UpdatedAt:   order.UpdatedAt,
		})
	}
	return items, nil
}

func (a *ExternalAdapter) Assign(ctx context.Context, workItemID uuid.UUID, contractorID uuid.UUID, reasoning string) error {
	reqURL := fmt.Sprintf("%s/api/v1/work-orders/%s/assignment", a.baseURL, workItemID)
	body := map[string]string{
		"contractor_id": contractorID.String(),
		"note":          reasoning,
	}
	// PUT keyed by work-order id keeps retries safe on the partner side.
	if err := a.doRequest(ctx, http.MethodPut, reqURL, body, nil); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "assign external work order", err)
	}
	return nil
}

func (a *ExternalAdapter) UpdateStatus(ctx context.Context, workItemID uuid.UUID, status domain.Status) error {
	wire, ok := externalStatusOut[status]
	if !ok {
		return apperr.New(apperr.KindValidation, fmt.Sprintf("status %s has no external equivalent", status))
	}
	reqURL := fmt.Sprintf("%s/api/v1/work-orders/%s/state", a.baseURL, workItemID)
	body := map[string]string{"state": wire}
	if err := a.doRequest(ctx, http.MethodPut, reqURL, body, nil); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "update external work order state", err)
	}
	return nil
}

func (a *ExternalAdapter) doRequest(ctx context.Context, method, reqURL string, body, out any) error {
	var lastErr error
	for attempt := 1; attempt <= externalMaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(externalRetryBackoff):
			}
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		lastErr = a.doOnce(ctx, method, reqURL, body, out)
		if lastErr == nil {
			return nil
		}
		a.log.AdapterError(string(domain.SourceExternal), method+" "+reqURL, lastErr)
	}
	return lastErr
}

func (a *ExternalAdapter) doOnce(ctx context.Context, method, reqURL string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		// Success, continue to decode.
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("unauthorized: invalid API key")
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("work order not found")
	default:
		return fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ Adapter = (*ExternalAdapter)(nil)
