package service

import "errors"

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPromoNotFound is returned when a promo code is unknown or inactive
	ErrPromoNotFound = errors.New("promo code not found")

	// ErrPromoExists is returned when creating a promo code whose code is taken
	ErrPromoExists = errors.New("promo code already exists")

	// ErrPromoExpired is returned when a promo code's validity window has passed
	ErrPromoExpired = errors.New("promo code expired")

	// ErrPromoMaxUses is returned when a promo code's usage ceiling is reached
	ErrPromoMaxUses = errors.New("promo code max uses reached")

	// ErrPromoNotApplicable is returned when a promo code does not cover the target item
	ErrPromoNotApplicable = errors.New("promo code not applicable to this item")

	// ErrMethodNotFound is returned when the payment method is not configured
	ErrMethodNotFound = errors.New("payment method not found")

	// ErrMethodDisabled is returned when the payment method is configured but disabled
	ErrMethodDisabled = errors.New("payment method disabled")

	// ErrAmountOutOfRange is returned when the payable total falls outside the method's bounds
	ErrAmountOutOfRange = errors.New("amount out of range for payment method")

	// ErrDuplicateSubmission is returned when an identical submission is still pending
	ErrDuplicateSubmission = errors.New("duplicate payment submission")

	// ErrTransactionNotFound is returned when a payment transaction cannot be found
	ErrTransactionNotFound = errors.New("payment transaction not found")

	// ErrInvalidStateTransition is returned when acting on a terminal transaction or refund
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrRefundNotFound is returned when a refund request cannot be found
	ErrRefundNotFound = errors.New("refund request not found")

	// ErrInvalidRefundAmount is returned when a refund amount is non-positive or exceeds the paid amount
	ErrInvalidRefundAmount = errors.New("invalid refund amount")

	// ErrRefundPrecondition is returned when filing a refund against a non-settled transaction
	ErrRefundPrecondition = errors.New("transaction is not settled")

	// ErrItemNotFound is returned when the priced target (course or bundle) does not exist
	ErrItemNotFound = errors.New("item not found")

	// ErrCourseNotEligible is returned when a bundle references a missing or unpublished course
	ErrCourseNotEligible = errors.New("course missing or not published")

	// ErrBundleNotFound is returned when a bundle cannot be found
	ErrBundleNotFound = errors.New("bundle not found")
)
