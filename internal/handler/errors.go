package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/learnloop/payments/internal/service"
)

// mapServiceError translates sentinel service errors into an HTTP status
// and client-facing message. Returns ok == false for unknown errors, which
// handlers log and report as internal failures.
func mapServiceError(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return fiber.StatusBadRequest, err.Error(), true
	case errors.Is(err, service.ErrPromoNotFound):
		return fiber.StatusNotFound, "promo code not found", true
	case errors.Is(err, service.ErrPromoExists):
		return fiber.StatusConflict, "promo code already exists", true
	case errors.Is(err, service.ErrPromoExpired):
		return fiber.StatusGone, "promo code expired", true
	case errors.Is(err, service.ErrPromoMaxUses):
		return fiber.StatusConflict, "promo code max uses reached", true
	case errors.Is(err, service.ErrPromoNotApplicable):
		return fiber.StatusUnprocessableEntity, "promo code not applicable to this item", true
	case errors.Is(err, service.ErrMethodNotFound):
		return fiber.StatusNotFound, "payment method not found", true
	case errors.Is(err, service.ErrMethodDisabled):
		return fiber.StatusUnprocessableEntity, "payment method disabled", true
	case errors.Is(err, service.ErrAmountOutOfRange):
		return fiber.StatusUnprocessableEntity, "amount out of range for payment method", true
	case errors.Is(err, service.ErrDuplicateSubmission):
		return fiber.StatusConflict, "duplicate payment submission", true
	case errors.Is(err, service.ErrTransactionNotFound):
		return fiber.StatusNotFound, "payment transaction not found", true
	case errors.Is(err, service.ErrInvalidStateTransition):
		return fiber.StatusConflict, "invalid state transition", true
	case errors.Is(err, service.ErrRefundNotFound):
		return fiber.StatusNotFound, "refund request not found", true
	case errors.Is(err, service.ErrInvalidRefundAmount):
		return fiber.StatusUnprocessableEntity, "invalid refund amount", true
	case errors.Is(err, service.ErrRefundPrecondition):
		return fiber.StatusPreconditionFailed, "transaction is not settled", true
	case errors.Is(err, service.ErrItemNotFound):
		return fiber.StatusNotFound, "item not found", true
	case errors.Is(err, service.ErrCourseNotEligible):
		return fiber.StatusUnprocessableEntity, "course missing or not published", true
	case errors.Is(err, service.ErrBundleNotFound):
		return fiber.StatusNotFound, "bundle not found", true
	}
	return 0, "", false
}

// formatValidationError converts validator errors into a client message
// naming the first offending field.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "min":
				return "invalid request: " + field + " has too few entries"
			case "oneof":
				return "invalid request: " + field + " has an unsupported value"
			case "uuid4":
				return "invalid request: " + field + " must be a valid id"
			case "gte", "lte":
				return "invalid request: " + field + " is out of range"
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}
