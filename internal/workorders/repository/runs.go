package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/apperr"
)

const runNotFoundMsg = "automation run not found"

// RunRecord is the persisted form of a finished automation run.
type RunRecord struct {
	ID           uuid.UUID
	Mode         domain.RunMode
	StartedAt    time.Time
	FinishedAt   time.Time
	Processed    int
	AutoAssigned int
	ManualReview int
	Errors       int
	Merged       int
	ErrorNote    string
	Outcomes     []domain.ItemOutcome
	Summary      string
}

// outcomeDoc is the JSONB shape of one per-item outcome.
type outcomeDoc struct {
	WorkItemID      uuid.UUID  `json:"workItemId"`
	Source          string     `json:"source"`
	PropertyID      string     `json:"propertyId,omitempty"`
	Outcome         string     `json:"outcome"`
	Category        string     `json:"category"`
	Urgency         string     `json:"urgency"`
	ContractorID    *uuid.UUID `json:"contractorId,omitempty"`
	ContractorName  string     `json:"contractorName,omitempty"`
	FinalQuoteCents int64      `json:"finalQuoteCents,omitempty"`
	Confidence      int        `json:"confidence,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	MergedIntoID    *uuid.UUID `json:"mergedIntoId,omitempty"`
}

const runColumns = `id, mode, started_at, finished_at, processed, auto_assigned,
	manual_review, errors, merged, error_note, outcomes, summary`

// SaveRun persists a finished run report together with its human-readable
// summary. Counts are denormalized for cheap listing.
func (r *Repository) SaveRun(ctx context.Context, report *domain.RunReport, summary string) error {
	docs := make([]outcomeDoc, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		docs = append(docs, outcomeDoc{
			WorkItemID:      o.WorkItemID,
			Source:          string(o.Source),
			PropertyID:      o.PropertyID,
			Outcome:         string(o.Outcome),
			Category:        string(o.Category),
			Urgency:         string(o.Urgency),
			ContractorID:    o.ContractorID,
			ContractorName:  o.ContractorName,
			FinalQuoteCents: o.FinalQuoteCents,
			Confidence:      o.Confidence,
			Reason:          o.Reason,
			MergedIntoID:    o.MergedIntoID,
		})
	}
	outcomesJSON, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to encode run outcomes: %w", err)
	}

	query := `
		INSERT INTO automation_runs (
			id, mode, started_at, finished_at, processed, auto_assigned,
			manual_review, errors, merged, error_note, outcomes, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.pool.Exec(ctx, query,
		report.ID, string(report.Mode), report.StartedAt, report.FinishedAt,
		report.Processed(), report.AutoAssigned(), report.ManualReviewNeeded(),
		report.Errors(), report.Merged(), report.ErrorNote, outcomesJSON, summary,
	)
	if err != nil {
		return fmt.Errorf("failed to save automation run: %w", err)
	}

	return nil
}

// GetRun retrieves a persisted run by its ID
func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM automation_runs WHERE id = $1`

	rec, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(runNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get automation run: %w", err)
	}

	return rec, nil
}

// ListRuns retrieves the most recent runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM automation_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list automation runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation run: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate automation runs: %w", err)
	}

	return records, nil
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec          RunRecord
		mode         string
		outcomesJSON []byte
	)
	err := row.Scan(
		&rec.ID, &mode, &rec.StartedAt, &rec.FinishedAt, &rec.Processed,
		&rec.AutoAssigned, &rec.ManualReview, &rec.Errors, &rec.Merged,
		&rec.ErrorNote, &outcomesJSON, &rec.Summary,
	)
	if err != nil {
		return nil, err
	}

	rec.Mode = domain.RunMode(mode)
	if len(outcomesJSON) > 0 {
		var docs []outcomeDoc
		if err := json.Unmarshal(outcomesJSON, &docs); err != nil {
			return nil, fmt.Errorf("failed to decode run outcomes: %w", err)
		}
		rec.Outcomes = make([]domain.ItemOutcome, 0, len(docs))
		for _, d := range docs {
			rec.Outcomes = append(rec.Outcomes, domain.ItemOutcome{
				WorkItemID:      d.WorkItemID,
				Source:          domain.Source(d.Source),
				PropertyID:      d.PropertyID,
				Outcome:         domain.OutcomeType(d.Outcome),
				Category:        domain.Category(d.Category),
				Urgency:         domain.Urgency(d.Urgency),
				ContractorID:    d.ContractorID,
				ContractorName:  d.ContractorName,
				FinalQuoteCents: d.FinalQuoteCents,
				Confidence:      d.Confidence,
				Reason:          d.Reason,
				MergedIntoID:    d.MergedIntoID,
			})
		}
	}

	return &rec, nil
}
