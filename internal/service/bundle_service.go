package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/learnloop/payments/internal/model"
	"github.com/learnloop/payments/internal/pricing"
	"github.com/learnloop/payments/pkg/database"
)

// BundleRepositoryInterface defines the catalog operations bundles need.
type BundleRepositoryInterface interface {
	GetPublishedCourses(ctx context.Context, ids []uuid.UUID) ([]model.Course, error)
	GetBundle(ctx context.Context, id uuid.UUID) (*model.Bundle, error)
	GetBundleCourses(ctx context.Context, bundleID uuid.UUID) ([]model.Course, error)
	InsertBundle(ctx context.Context, tx database.TxQuerier, b *model.Bundle, courseIDs []uuid.UUID) error
}

// BundleService composes and serves course bundles.
type BundleService struct {
	pool database.TxBeginner
	repo BundleRepositoryInterface
}

// NewBundleService creates a new BundleService.
func NewBundleService(pool database.TxBeginner, repo BundleRepositoryInterface) *BundleService {
	return &BundleService{pool: pool, repo: repo}
}

// Create composes a new bundle. Every referenced course must exist and be
// published at composition time; courses unpublished later keep their place
// in existing bundles but are ineligible for new ones.
// Returns ErrCourseNotEligible when any requested course is missing or
// unpublished.
func (s *BundleService) Create(ctx context.Context, req *model.CreateBundleRequest) (*model.BundleResponse, error) {
	if req == nil || req.PriceAmount == nil || req.DiscountPercentage == nil {
		return nil, ErrInvalidRequest
	}

	ids := make([]uuid.UUID, 0, len(req.CourseIDs))
	seen := map[uuid.UUID]bool{}
	for _, raw := range req.CourseIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, ErrInvalidRequest
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, ErrInvalidRequest
	}

	courses, err := s.repo.GetPublishedCourses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get published courses: %w", err)
	}
	if len(courses) != len(ids) {
		return nil, ErrCourseNotEligible
	}

	b := &model.Bundle{
		ID:                 uuid.New(),
		Title:              req.Title,
		PriceAmount:        *req.PriceAmount,
		DiscountPercentage: *req.DiscountPercentage,
	}
	err = database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return s.repo.InsertBundle(ctx, tx, b, ids)
	})
	if err != nil {
		return nil, err
	}

	return composeResponse(b, courses), nil
}

// Get returns the composed view of a bundle.
// Returns ErrBundleNotFound if the bundle doesn't exist.
func (s *BundleService) Get(ctx context.Context, id uuid.UUID) (*model.BundleResponse, error) {
	b, err := s.repo.GetBundle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	if b == nil {
		return nil, ErrBundleNotFound
	}

	courses, err := s.repo.GetBundleCourses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bundle courses: %w", err)
	}
	return composeResponse(b, courses), nil
}

func composeResponse(b *model.Bundle, courses []model.Course) *model.BundleResponse {
	bq := pricing.ComposeBundle(b.PriceAmount, b.DiscountPercentage, courses)
	return &model.BundleResponse{
		ID:                   b.ID,
		Title:                b.Title,
		PriceAmount:          b.PriceAmount,
		DiscountPercentage:   b.DiscountPercentage,
		DiscountedPrice:      bq.DiscountedPrice,
		CourseCount:          bq.CourseCount,
		TotalDurationMinutes: bq.TotalDurationMinutes,
		Courses:              courses,
	}
}
