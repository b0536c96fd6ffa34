package model

import (
	"time"

	"github.com/google/uuid"
)

// Course is the thin catalog view this service needs to price a target.
// Course authoring lives elsewhere; only price, duration and publication
// state matter here.
type Course struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	PriceAmount     int64     `json:"price_amount"`
	DurationMinutes int       `json:"duration_minutes"`
	IsPublished     bool      `json:"is_published"`
	CreatedAt       time.Time `json:"-"`
}

// Bundle is an admin-curated priced collection of published courses.
// PriceAmount is an explicit override, not the sum of component prices;
// DiscountPercentage (0-100) applies on top of the override.
type Bundle struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	PriceAmount        int64     `json:"price_amount"`
	DiscountPercentage int64     `json:"discount_percentage"`
	CreatedAt          time.Time `json:"-"`
}

// CreateBundleRequest is the DTO for composing a new bundle.
type CreateBundleRequest struct {
	Title              string   `json:"title" validate:"required,notblank,max=255"`
	PriceAmount        *int64   `json:"price_amount" validate:"required,gte=0"`
	DiscountPercentage *int64   `json:"discount_percentage" validate:"required,gte=0,lte=100"`
	CourseIDs          []string `json:"course_ids" validate:"required,min=1,dive,uuid4"`
}

// BundleResponse is the composed API view of a bundle.
type BundleResponse struct {
	ID                   uuid.UUID `json:"id"`
	Title                string    `json:"title"`
	PriceAmount          int64     `json:"price_amount"`
	DiscountPercentage   int64     `json:"discount_percentage"`
	DiscountedPrice      int64     `json:"discounted_price"`
	CourseCount          int       `json:"course_count"`
	TotalDurationMinutes int       `json:"total_duration_minutes"`
	Courses              []Course  `json:"courses"`
}
