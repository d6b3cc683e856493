package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/apperr"
)

const contractorNotFoundMsg = "contractor not found"

const contractorColumns = `id, name, specialties, rating, availability, phone, email`

// CreateContractor inserts a new contractor
func (r *Repository) CreateContractor(ctx context.Context, c domain.Contractor) error {
	query := `
		INSERT INTO contractors (id, name, specialties, rating, availability, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Name, c.Specialties, c.Rating, string(c.Availability), c.Phone, c.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to create contractor: %w", err)
	}

	return nil
}

// GetContractor retrieves a contractor by its ID
func (r *Repository) GetContractor(ctx context.Context, id uuid.UUID) (domain.Contractor, error) {
	query := `SELECT ` + contractorColumns + ` FROM contractors WHERE id = $1`

	c, err := scanContractor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contractor{}, apperr.NotFound(contractorNotFoundMsg)
		}
		return domain.Contractor{}, fmt.Errorf("failed to get contractor: %w", err)
	}

	return c, nil
}

// ListContractors retrieves all contractors that have not been offboarded.
// Busy contractors are included; eligibility filtering happens at scoring time.
func (r *Repository) ListContractors(ctx context.Context) ([]domain.Contractor, error) {
	query := `SELECT ` + contractorColumns + ` FROM contractors
		WHERE availability != $1 ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, string(domain.AvailabilityOffboarded))
	if err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}
	defer rows.Close()

	var contractors []domain.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		contractors = append(contractors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contractors: %w", err)
	}

	return contractors, nil
}

// UpdateContractorAvailability updates a contractor's dispatch status
func (r *Repository) UpdateContractorAvailability(ctx context.Context, id uuid.UUID, availability domain.Availability) error {
	query := `UPDATE contractors SET availability = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, string(availability))
	if err != nil {
		return fmt.Errorf("failed to update contractor availability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(contractorNotFoundMsg)
	}

	return nil
}

func scanContractor(row rowScanner) (domain.Contractor, error) {
	var (
		c            domain.Contractor
		availability string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Specialties, &c.Rating, &availability, &c.Phone, &c.Email)
	if err != nil {
		return domain.Contractor{}, err
	}

	c.Availability = domain.Availability(availability)
	return c, nil
}
