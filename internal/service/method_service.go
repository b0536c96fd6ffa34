package service

import (
	"context"
	"fmt"

	"github.com/learnloop/payments/internal/model"
)

// MethodRepositoryInterface defines the interface for method config access.
type MethodRepositoryInterface interface {
	Upsert(ctx context.Context, m *model.PaymentMethodConfig) error
	GetByProvider(ctx context.Context, provider string) (*model.PaymentMethodConfig, error)
	List(ctx context.Context) ([]model.PaymentMethodConfig, error)
}

// MethodService manages payment method configuration. Methods are
// soft-disabled via is_enabled, never deleted.
type MethodService struct {
	repo MethodRepositoryInterface
}

// NewMethodService creates a new MethodService with the given repository.
func NewMethodService(repo MethodRepositoryInterface) *MethodService {
	return &MethodService{repo: repo}
}

// Upsert creates or replaces a payment method configuration.
func (s *MethodService) Upsert(ctx context.Context, provider string, req *model.UpsertPaymentMethodRequest) (*model.PaymentMethodConfig, error) {
	if req == nil || req.IsEnabled == nil || req.MinAmount == nil || req.MaxAmount == nil || req.FeePercent == nil {
		return nil, ErrInvalidRequest
	}
	if *req.MaxAmount > 0 && *req.MinAmount > *req.MaxAmount {
		return nil, fmt.Errorf("%w: min_amount exceeds max_amount", ErrInvalidRequest)
	}

	m := &model.PaymentMethodConfig{
		Provider:    provider,
		DisplayName: req.DisplayName,
		IsEnabled:   *req.IsEnabled,
		MinAmount:   *req.MinAmount,
		MaxAmount:   *req.MaxAmount,
		FeePercent:  *req.FeePercent,
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns all configured payment methods.
func (s *MethodService) List(ctx context.Context) ([]model.PaymentMethodConfig, error) {
	return s.repo.List(ctx)
}
