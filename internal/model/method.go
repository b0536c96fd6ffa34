package model

import "time"

// PaymentMethodConfig is an admin-authored payment channel. It is read-only
// to the pricing and ledger logic. Amounts are minor units; FeePercent is a
// whole percent (0-100) applied to the post-discount amount. MaxAmount of 0
// means no upper bound.
type PaymentMethodConfig struct {
	Provider    string    `json:"provider"`
	DisplayName string    `json:"display_name"`
	IsEnabled   bool      `json:"is_enabled"`
	MinAmount   int64     `json:"min_amount"`
	MaxAmount   int64     `json:"max_amount"`
	FeePercent  int64     `json:"fee_percent"`
	UpdatedAt   time.Time `json:"-"`
}

// UpsertPaymentMethodRequest is the DTO for configuring a payment method.
type UpsertPaymentMethodRequest struct {
	DisplayName string `json:"display_name" validate:"required,notblank,max=255"`
	IsEnabled   *bool  `json:"is_enabled" validate:"required"`
	MinAmount   *int64 `json:"min_amount" validate:"required,gte=0"`
	MaxAmount   *int64 `json:"max_amount" validate:"required,gte=0"`
	FeePercent  *int64 `json:"fee_percent" validate:"required,gte=0,lte=100"`
}
