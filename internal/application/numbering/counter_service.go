package numbering

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/numbering"
	"github.com/opsdesk/backend/internal/domain/shared"
)

// CounterService manages document counter configuration and number
// allocation for a tenant.
type CounterService struct {
	counterRepo numbering.CounterRepository
}

// NewCounterService creates a new CounterService
func NewCounterService(counterRepo numbering.CounterRepository) *CounterService {
	return &CounterService{counterRepo: counterRepo}
}

// GetConfig returns the counter configuration for a document kind, lazily
// creating the default config on first access.
func (s *CounterService) GetConfig(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (*CounterResponse, error) {
	counter, err := s.getOrCreate(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}

	response := ToCounterResponse(counter, time.Now())
	return &response, nil
}

// UpdateConfig changes prefix, format and padding for a document kind.
// The running counter value is preserved across config changes.
func (s *CounterService) UpdateConfig(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind, req UpdateCounterConfigRequest) (*CounterResponse, error) {
	counter, err := s.getOrCreate(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}

	if err := counter.UpdateConfig(req.Prefix, numbering.NumberFormat(req.Format), req.LeadingZeros); err != nil {
		return nil, err
	}

	if err := s.counterRepo.Save(ctx, counter); err != nil {
		return nil, err
	}

	response := ToCounterResponse(counter, time.Now())
	return &response, nil
}

// Preview renders what the next allocated number would look like without
// consuming it. A concurrent allocation can still claim the previewed
// number first.
func (s *CounterService) Preview(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (*PreviewResponse, error) {
	counter, err := s.getOrCreate(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}

	return &PreviewResponse{
		Kind:       kind.String(),
		NextNumber: counter.Peek(time.Now()),
	}, nil
}

// SetCounter overrides the running counter value. Unchecked against numbers
// already issued, so this can introduce duplicates; the HTTP layer restricts
// it to admin callers.
func (s *CounterService) SetCounter(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind, value int64) (*CounterResponse, error) {
	counter, err := s.getOrCreate(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}

	if err := counter.SetCounter(value); err != nil {
		return nil, err
	}

	if err := s.counterRepo.Save(ctx, counter); err != nil {
		return nil, err
	}

	response := ToCounterResponse(counter, time.Now())
	return &response, nil
}

// ResetCounter restarts numbering for a kind so the next number renders as 1.
func (s *CounterService) ResetCounter(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (*CounterResponse, error) {
	counter, err := s.getOrCreate(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}

	counter.ResetCounter()

	if err := s.counterRepo.Save(ctx, counter); err != nil {
		return nil, err
	}

	response := ToCounterResponse(counter, time.Now())
	return &response, nil
}

// Allocate issues the next document number for a kind. The increment and
// the returned number come out of one atomic storage operation.
func (s *CounterService) Allocate(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (string, error) {
	if !kind.IsValid() {
		return "", shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind")
	}
	return s.counterRepo.Allocate(ctx, tenantID, kind)
}

func (s *CounterService) getOrCreate(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (*numbering.DocumentCounter, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind")
	}

	counter, err := s.counterRepo.FindForTenant(ctx, tenantID, kind)
	if err == nil {
		return counter, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	counter, err = numbering.NewDefaultCounter(tenantID, kind)
	if err != nil {
		return nil, err
	}
	if err := s.counterRepo.Save(ctx, counter); err != nil {
		return nil, err
	}
	return counter, nil
}
