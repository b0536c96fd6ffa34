package model

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus is the lifecycle of a refund request.
// Both approved and rejected are terminal.
type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
	RefundRejected RefundStatus = "rejected"
)

// RefundRequest is a learner's claim against a settled transaction.
// Approving it does not revoke enrollment; that is an external action.
type RefundRequest struct {
	ID            uuid.UUID    `json:"id"`
	TransactionID uuid.UUID    `json:"transaction_id"`
	RequestedBy   uuid.UUID    `json:"requested_by"`
	RefundAmount  int64        `json:"refund_amount"`
	Reason        string       `json:"reason"`
	Status        RefundStatus `json:"status"`
	DecidedBy     *uuid.UUID   `json:"decided_by,omitempty"`
	DecisionNotes string       `json:"decision_notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	DecidedAt     *time.Time   `json:"decided_at,omitempty"`
}

// CreateRefundRequest is the DTO for filing a refund.
type CreateRefundRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid4"`
	Amount        *int64 `json:"amount" validate:"required"`
	Reason        string `json:"reason" validate:"required,notblank,max=1000"`
}

// DecideRefundRequest is the DTO for resolving a refund request.
type DecideRefundRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Notes   string `json:"notes" validate:"max=1000"`
}
