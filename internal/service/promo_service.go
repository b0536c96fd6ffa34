package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/payments/internal/model"
)

// PromoRepositoryInterface defines the interface for promo code data access.
type PromoRepositoryInterface interface {
	Insert(ctx context.Context, p *model.PromoCode) error
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
	List(ctx context.Context) ([]model.PromoCode, error)
	Deactivate(ctx context.Context, code string) error
}

// PromoService provides promo code validation and admin management.
type PromoService struct {
	repo PromoRepositoryInterface
}

// NewPromoService creates a new PromoService with the given repository.
func NewPromoService(repo PromoRepositoryInterface) *PromoService {
	return &PromoService{repo: repo}
}

// Create creates a new promo code from the request. Range checks that the
// validator tags cannot express (percentage ceiling, applicable_ids
// coupling) live here.
// Returns ErrPromoExists if the code is already taken.
func (s *PromoService) Create(ctx context.Context, req *model.CreatePromoCodeRequest) (*model.PromoCode, error) {
	if req == nil || req.DiscountValue == nil {
		return nil, ErrInvalidRequest
	}
	if model.DiscountType(req.DiscountType) == model.DiscountPercentage && *req.DiscountValue > 100 {
		return nil, fmt.Errorf("%w: percentage discount must be 0-100", ErrInvalidRequest)
	}
	// applicable_ids is null exactly when the code applies to everything
	if model.ApplicableType(req.ApplicableType) == model.ApplicableAll && len(req.ApplicableIDs) > 0 {
		return nil, fmt.Errorf("%w: applicable_ids must be empty for type all", ErrInvalidRequest)
	}
	if model.ApplicableType(req.ApplicableType) != model.ApplicableAll && len(req.ApplicableIDs) == 0 {
		return nil, fmt.Errorf("%w: applicable_ids required for restricted codes", ErrInvalidRequest)
	}

	p := &model.PromoCode{
		ID:             uuid.New(),
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		Description:    req.Description,
		DiscountType:   model.DiscountType(req.DiscountType),
		DiscountValue:  *req.DiscountValue,
		ApplicableType: model.ApplicableType(req.ApplicableType),
		ApplicableIDs:  req.ApplicableIDs,
		MaxUses:        req.MaxUses,
		ValidUntil:     req.ValidUntil,
		IsActive:       true,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks a code's redeemability against a target item at now.
// It never mutates used_count; the increment happens only at approval so
// abandoned submissions are not counted and concurrency stays at the
// storage layer.
// Returns:
//   - ErrPromoNotFound if the code is unknown or inactive
//   - ErrPromoExpired if valid_until has passed
//   - ErrPromoMaxUses if the usage ceiling is already reached
//   - ErrPromoNotApplicable if the code does not cover the target
func (s *PromoService) Validate(ctx context.Context, code string, targetType model.TargetType, targetID uuid.UUID, now time.Time) (*model.Discount, error) {
	p, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if p == nil || !p.IsActive {
		return nil, ErrPromoNotFound
	}
	if p.Expired(now) {
		return nil, ErrPromoExpired
	}
	if p.Exhausted() {
		return nil, ErrPromoMaxUses
	}
	if !p.AppliesTo(targetType, targetID) {
		return nil, ErrPromoNotApplicable
	}

	return &model.Discount{Type: p.DiscountType, Value: p.DiscountValue}, nil
}

// Get retrieves a promo code with usage stats.
// Returns ErrPromoNotFound if the code doesn't exist.
func (s *PromoService) Get(ctx context.Context, code string) (*model.PromoCodeResponse, error) {
	p, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if p == nil {
		return nil, ErrPromoNotFound
	}
	return promoResponse(p), nil
}

// List returns all promo codes with usage stats.
func (s *PromoService) List(ctx context.Context) ([]model.PromoCodeResponse, error) {
	codes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}

	out := make([]model.PromoCodeResponse, 0, len(codes))
	for i := range codes {
		out = append(out, *promoResponse(&codes[i]))
	}
	return out, nil
}

// Deactivate soft-disables a promo code.
// Returns ErrPromoNotFound if the code doesn't exist.
func (s *PromoService) Deactivate(ctx context.Context, code string) error {
	return s.repo.Deactivate(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func promoResponse(p *model.PromoCode) *model.PromoCodeResponse {
	resp := &model.PromoCodeResponse{
		ID:             p.ID,
		Code:           p.Code,
		Description:    p.Description,
		DiscountType:   p.DiscountType,
		DiscountValue:  p.DiscountValue,
		ApplicableType: p.ApplicableType,
		ApplicableIDs:  p.ApplicableIDs,
		MaxUses:        p.MaxUses,
		UsedCount:      p.UsedCount,
		ValidUntil:     p.ValidUntil,
		IsActive:       p.IsActive,
	}
	if p.MaxUses != nil {
		remaining := *p.MaxUses - p.UsedCount
		if remaining < 0 {
			remaining = 0
		}
		resp.RemainingUses = &remaining
	}
	return resp
}
