package model

import (
	"time"

	"github.com/google/uuid"
)

// TargetType identifies what kind of item a payment is for.
type TargetType string

const (
	TargetCourse TargetType = "course"
	TargetBundle TargetType = "bundle"
)

// TransactionStatus is the payment-side lifecycle of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

// VerificationStatus is the admin-review side of a transaction.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// PaymentTransaction is the ledger record for one payment submission.
// All monetary fields are integer minor units (cents).
// Amount = OriginalAmount - DiscountAmount; TotalAmount = Amount + FeeAmount.
type PaymentTransaction struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"user_id"`
	TargetType         TargetType         `json:"target_type"`
	TargetID           uuid.UUID          `json:"target_id"`
	PaymentMethod      string             `json:"payment_method"`
	OriginalAmount     int64              `json:"original_amount"`
	DiscountAmount     int64              `json:"discount_amount"`
	Amount             int64              `json:"amount"`
	FeeAmount          int64              `json:"fee_amount"`
	TotalAmount        int64              `json:"total_amount"`
	PromoCode          string             `json:"promo_code,omitempty"`
	PaymentReference   string             `json:"payment_reference"`
	PaymentProofURL    string             `json:"payment_proof_url"`
	Status             TransactionStatus  `json:"status"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	VerifiedBy         *uuid.UUID         `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	RejectionReason    string             `json:"rejection_reason,omitempty"`
	Notes              string             `json:"notes,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Decided reports whether the verification workflow has passed judgment.
// A decided or cancelled record is terminal: no further transition exists.
func (t *PaymentTransaction) Decided() bool {
	return t.VerificationStatus != VerificationPending
}

// Cancellable reports whether a learner may still withdraw the submission.
func (t *PaymentTransaction) Cancellable() bool {
	return t.Status == StatusPending && t.VerificationStatus == VerificationPending
}

// Settled reports whether the transaction completed and was approved,
// the only state refunds can be filed against.
func (t *PaymentTransaction) Settled() bool {
	return t.Status == StatusCompleted && t.VerificationStatus == VerificationApproved
}

// History actions recorded in the append-only audit trail.
const (
	HistorySubmitted = "submitted"
	HistoryApproved  = "approved"
	HistoryRejected  = "rejected"
	HistoryCancelled = "cancelled"
)

// PaymentHistoryEntry is one append-only audit row. Entries are created,
// never updated or deleted.
type PaymentHistoryEntry struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Action        string    `json:"action"`
	PerformedBy   uuid.UUID `json:"performed_by"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitPaymentRequest is the DTO for a learner payment submission.
type SubmitPaymentRequest struct {
	TargetType       string `json:"target_type" validate:"required,oneof=course bundle"`
	TargetID         string `json:"target_id" validate:"required,uuid4"`
	PaymentMethod    string `json:"payment_method" validate:"required,notblank,max=64"`
	PaymentReference string `json:"payment_reference" validate:"required,notblank,max=255"`
	ProofRef         string `json:"proof_ref" validate:"required,notblank,max=1024"`
	PromoCode        string `json:"promo_code" validate:"omitempty,max=64"`
}

// DecisionRequest is the DTO for an admin approve call.
type DecisionRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

// RejectionRequest is the DTO for an admin reject call.
// The reason is mandatory and may not be blank.
type RejectionRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=1000"`
}

// ProofUploadRequest asks for a presigned upload slot for a payment proof.
type ProofUploadRequest struct {
	Filename    string `json:"filename" validate:"required,notblank,max=255"`
	ContentType string `json:"content_type" validate:"required,notblank,max=255"`
}

// ProofUploadResponse carries the presigned URL and the stable reference
// the client must echo back in SubmitPaymentRequest.ProofRef.
type ProofUploadResponse struct {
	UploadURL string `json:"upload_url"`
	ProofRef  string `json:"proof_ref"`
}
