// Package pricing holds the pure monetary computations: discount
// application and bundle price composition. All amounts are integer minor
// units; percentages are whole percents.
package pricing

import "github.com/learnloop/payments/internal/model"

// Quote is the result of applying a discount to a base amount.
// FinalAmount = OriginalAmount - DiscountAmount and is never negative.
type Quote struct {
	OriginalAmount int64 `json:"original_amount"`
	DiscountAmount int64 `json:"discount_amount"`
	FinalAmount    int64 `json:"final_amount"`
}

// BundleQuote is the derived view of a bundle's price and aggregate stats.
type BundleQuote struct {
	DiscountedPrice      int64 `json:"discounted_price"`
	CourseCount          int   `json:"course_count"`
	TotalDurationMinutes int   `json:"total_duration_minutes"`
}

// PercentOf returns percent% of base, rounded half-up to the minor unit.
// Non-positive inputs yield 0.
func PercentOf(base, percent int64) int64 {
	if base <= 0 || percent <= 0 {
		return 0
	}
	return (base*percent + 50) / 100
}

// Compute applies a discount to a base amount. A percentage discount is
// rounded half-up and capped at the base; a fixed discount is clamped to
// the base so the final amount can never go negative.
func Compute(base int64, discountType model.DiscountType, value int64) Quote {
	if base < 0 {
		base = 0
	}

	var discount int64
	switch discountType {
	case model.DiscountPercentage:
		discount = PercentOf(base, value)
	case model.DiscountFixed:
		discount = value
	}

	if discount < 0 {
		discount = 0
	}
	if discount > base {
		discount = base
	}

	return Quote{
		OriginalAmount: base,
		DiscountAmount: discount,
		FinalAmount:    base - discount,
	}
}

// ComposeBundle derives a bundle's discounted price and aggregate stats.
// The price comes from the explicit override with the bundle's own
// percentage applied on top; the component courses contribute only count
// and total duration, never the price.
func ComposeBundle(priceOverride, discountPercentage int64, courses []model.Course) BundleQuote {
	quote := Compute(priceOverride, model.DiscountPercentage, discountPercentage)

	total := 0
	for _, c := range courses {
		total += c.DurationMinutes
	}

	return BundleQuote{
		DiscountedPrice:      quote.FinalAmount,
		CourseCount:          len(courses),
		TotalDurationMinutes: total,
	}
}
