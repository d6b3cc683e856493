package service

import (
	"context"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/transport"
	"propertyops_backend/platform/apperr"
	"propertyops_backend/platform/phone"
)

// CreateContractor onboards a new contractor. The phone number is normalized
// to E.164 when it parses; otherwise it is stored as entered.
func (s *Service) CreateContractor(ctx context.Context, req transport.CreateContractorRequest) (transport.ContractorResponse, error) {
	c := domain.Contractor{
		ID:           uuid.New(),
		Name:         req.Name,
		Specialties:  req.Specialties,
		Rating:       req.Rating,
		Availability: domain.Availability(req.Availability),
		Phone:        phone.NormalizeE164(req.Phone),
		Email:        req.Email,
	}

	if err := s.repo.CreateContractor(ctx, c); err != nil {
		return transport.ContractorResponse{}, apperr.Wrap(apperr.KindInternal, "create contractor", err)
	}

	return transport.ToContractorResponse(c), nil
}

// GetContractor retrieves a single contractor
func (s *Service) GetContractor(ctx context.Context, id uuid.UUID) (transport.ContractorResponse, error) {
	c, err := s.repo.GetContractor(ctx, id)
	if err != nil {
		return transport.ContractorResponse{}, err
	}
	return transport.ToContractorResponse(c), nil
}

// ListContractors retrieves all contractors that have not been offboarded
func (s *Service) ListContractors(ctx context.Context) ([]transport.ContractorResponse, error) {
	contractors, err := s.repo.ListContractors(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list contractors", err)
	}

	out := make([]transport.ContractorResponse, 0, len(contractors))
	for _, c := range contractors {
		out = append(out, transport.ToContractorResponse(c))
	}
	return out, nil
}

// UpdateContractorAvailability changes a contractor's dispatch status
func (s *Service) UpdateContractorAvailability(ctx context.Context, id uuid.UUID, req transport.UpdateContractorAvailabilityRequest) error {
	return s.repo.UpdateContractorAvailability(ctx, id, domain.Availability(req.Availability))
}
