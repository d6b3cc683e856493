// Package repository provides Postgres persistence for the work-orders module.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/apperr"
)

const workItemNotFoundMsg = "work item not found"

// Repository provides database operations for work items, contractors and
// automation runs.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new work-orders repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const workItemColumns = `id, source, property_id, description, category, status,
	contractor_id, estimated_cost_cents, final_quote_cents, comm_log, created_at, updated_at`

// SaveWorkItem inserts or updates a work item. The communication log is stored
// as a JSONB document alongside the row.
func (r *Repository) SaveWorkItem(ctx context.Context, item domain.WorkItem) error {
	logJSON, err := json.Marshal(item.Log)
	if err != nil {
		return fmt.Errorf("failed to encode communication log: %w", err)
	}

	query := `
		INSERT INTO work_items (
			id, source, property_id, description, category, status,
			contractor_id, estimated_cost_cents, final_quote_cents, comm_log, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			contractor_id = EXCLUDED.contractor_id,
			estimated_cost_cents = EXCLUDED.estimated_cost_cents,
			final_quote_cents = EXCLUDED.final_quote_cents,
			comm_log = EXCLUDED.comm_log,
			updated_at = EXCLUDED.updated_at`

	_, err = r.pool.Exec(ctx, query,
		item.ID, string(item.Source), item.PropertyID, item.Description, string(item.Category),
		string(item.Status), item.ContractorID, item.EstimatedCostCents, item.FinalQuoteCents,
		logJSON, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save work item: %w", err)
	}

	return nil
}

// GetWorkItem retrieves a work item by its ID
func (r *Repository) GetWorkItem(ctx context.Context, id uuid.UUID) (domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = $1`

	item, err := scanWorkItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WorkItem{}, apperr.NotFound(workItemNotFoundMsg)
		}
		return domain.WorkItem{}, fmt.Errorf("failed to get work item: %w", err)
	}

	return item, nil
}

// ListByStatuses retrieves work items in any of the given statuses, oldest
// first so runs process requests in report order.
func (r *Repository) ListByStatuses(ctx context.Context, statuses []domain.Status) ([]domain.WorkItem, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE status = ANY($1) ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items by status: %w", err)
	}
	defer rows.Close()

	return collectWorkItems(rows)
}

// ListWorkItemsParams contains parameters for listing work items
type ListWorkItemsParams struct {
	Status     *string
	Category   *string
	PropertyID *string
	Page       int
	PageSize   int
}

// WorkItemList contains the result of listing work items
type WorkItemList struct {
	Items      []domain.WorkItem
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// ListWorkItems retrieves work items with optional filtering
func (r *Repository) ListWorkItems(ctx context.Context, params ListWorkItemsParams) (*WorkItemList, error) {
	baseQuery := `FROM work_items WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	addFilter(&baseQuery, &args, &argIndex, params.Status != nil, " AND status = $%d", derefString(params.Status))
	addFilter(&baseQuery, &args, &argIndex, params.Category != nil, " AND category = $%d", derefString(params.Category))
	addFilter(&baseQuery, &args, &argIndex, params.PropertyID != nil, " AND property_id = $%d", derefString(params.PropertyID))

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count work items: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		workItemColumns, baseQuery, argIndex, argIndex+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	items, err := collectWorkItems(rows)
	if err != nil {
		return nil, err
	}

	return &WorkItemList{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (domain.WorkItem, error) {
	var (
		item     domain.WorkItem
		source   string
		category string
		status   string
		logJSON  []byte
	)
	err := row.Scan(
		&item.ID, &source, &item.PropertyID, &item.Description, &category, &status,
		&item.ContractorID, &item.EstimatedCostCents, &item.FinalQuoteCents,
		&logJSON, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return domain.WorkItem{}, err
	}

	item.Source = domain.Source(source)
	item.Category = domain.Category(category)
	item.Status = domain.Status(status)
	if len(logJSON) > 0 {
		if err := json.Unmarshal(logJSON, &item.Log); err != nil {
			return domain.WorkItem{}, fmt.Errorf("failed to decode communication log: %w", err)
		}
	}
	return item, nil
}

func collectWorkItems(rows pgx.Rows) ([]domain.WorkItem, error) {
	var items []domain.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate work items: %w", err)
	}

	return items, nil
}

func addFilter(baseQuery *string, args *[]interface{}, argIndex *int, apply bool, clause string, value interface{}) {
	if !apply {
		return
	}
	*baseQuery += fmt.Sprintf(clause, *argIndex)
	*args = append(*args, value)
	*argIndex++
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
