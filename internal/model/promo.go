package model

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType describes how a promo code's value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// ApplicableType restricts which items a promo code can discount.
type ApplicableType string

const (
	ApplicableAll    ApplicableType = "all"
	ApplicableCourse ApplicableType = "course"
	ApplicableBundle ApplicableType = "bundle"
)

// PromoCode represents a reusable discount token. Codes are soft-disabled
// via IsActive, never deleted. UsedCount is only ever advanced by the
// storage-level increment-with-ceiling at approval time.
type PromoCode struct {
	ID             uuid.UUID      `json:"id"`
	Code           string         `json:"code"`
	Description    string         `json:"description"`
	DiscountType   DiscountType   `json:"discount_type"`
	DiscountValue  int64          `json:"discount_value"`
	ApplicableType ApplicableType `json:"applicable_type"`
	ApplicableIDs  []string       `json:"applicable_ids,omitempty"`
	MaxUses        *int           `json:"max_uses,omitempty"`
	UsedCount      int            `json:"used_count"`
	ValidUntil     *time.Time     `json:"valid_until,omitempty"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"-"`
}

// AppliesTo reports whether the code may discount the given target.
func (p *PromoCode) AppliesTo(targetType TargetType, targetID uuid.UUID) bool {
	switch p.ApplicableType {
	case ApplicableAll:
		return true
	case ApplicableCourse:
		if targetType != TargetCourse {
			return false
		}
	case ApplicableBundle:
		if targetType != TargetBundle {
			return false
		}
	default:
		return false
	}
	id := targetID.String()
	for _, allowed := range p.ApplicableIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

// Expired reports whether the code's validity window has passed at now.
func (p *PromoCode) Expired(now time.Time) bool {
	return p.ValidUntil != nil && now.After(*p.ValidUntil)
}

// Exhausted reports whether the usage ceiling has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.MaxUses != nil && p.UsedCount >= *p.MaxUses
}

// Discount is the result of a successful promo validation.
type Discount struct {
	Type  DiscountType `json:"discount_type"`
	Value int64        `json:"discount_value"`
}

// CreatePromoCodeRequest is the DTO for creating a promo code.
type CreatePromoCodeRequest struct {
	Code           string     `json:"code" validate:"required,notblank,max=64"`
	Description    string     `json:"description" validate:"max=500"`
	DiscountType   string     `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue  *int64     `json:"discount_value" validate:"required,gte=0"`
	ApplicableType string     `json:"applicable_type" validate:"required,oneof=all course bundle"`
	ApplicableIDs  []string   `json:"applicable_ids" validate:"omitempty,dive,uuid4"`
	MaxUses        *int       `json:"max_uses" validate:"omitempty,gte=1"`
	ValidUntil     *time.Time `json:"valid_until"`
}

// ValidatePromoCodeRequest is the DTO for previewing a promo code against a target.
type ValidatePromoCodeRequest struct {
	Code       string `json:"code" validate:"required,notblank,max=64"`
	TargetType string `json:"target_type" validate:"required,oneof=course bundle"`
	TargetID   string `json:"target_id" validate:"required,uuid4"`
}

// PromoCodeResponse is the API view of a promo code, including usage stats.
type PromoCodeResponse struct {
	ID             uuid.UUID      `json:"id"`
	Code           string         `json:"code"`
	Description    string         `json:"description"`
	DiscountType   DiscountType   `json:"discount_type"`
	DiscountValue  int64          `json:"discount_value"`
	ApplicableType ApplicableType `json:"applicable_type"`
	ApplicableIDs  []string       `json:"applicable_ids,omitempty"`
	MaxUses        *int           `json:"max_uses,omitempty"`
	UsedCount      int            `json:"used_count"`
	RemainingUses  *int           `json:"remaining_uses,omitempty"`
	ValidUntil     *time.Time     `json:"valid_until,omitempty"`
	IsActive       bool           `json:"is_active"`
}
