package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/learnloop/payments/internal/middleware"
	"github.com/learnloop/payments/internal/model"
)

// VerificationServiceInterface defines the admin verification workflow.
type VerificationServiceInterface interface {
	Approve(ctx context.Context, transactionID, adminID uuid.UUID, notes string) (*model.PaymentTransaction, error)
	Reject(ctx context.Context, transactionID, adminID uuid.UUID, reason string) (*model.PaymentTransaction, error)
	ListByVerificationStatus(ctx context.Context, vs model.VerificationStatus) ([]model.PaymentTransaction, error)
	History(ctx context.Context, transactionID uuid.UUID) ([]model.PaymentHistoryEntry, error)
}

// AdminPaymentHandler handles admin HTTP requests on the verification workflow.
type AdminPaymentHandler struct {
	service   VerificationServiceInterface
	validator *validator.Validate
}

// NewAdminPaymentHandler creates a new AdminPaymentHandler.
func NewAdminPaymentHandler(svc VerificationServiceInterface, v *validator.Validate) *AdminPaymentHandler {
	return &AdminPaymentHandler{service: svc, validator: v}
}

// Approve handles POST /api/admin/payments/:id/approve.
func (h *AdminPaymentHandler) Approve(c *fiber.Ctx) error {
	adminID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid id"})
	}

	var req model.DecisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := h.validator.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
		}
	}

	t, err := h.service.Approve(c.Context(), transactionID, adminID, req.Notes)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("transaction_id", transactionID.String()).
			Str("admin_id", adminID.String()).
			Msg("failed to approve payment")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("transaction_id", t.ID.String()).
		Str("admin_id", adminID.String()).
		Msg("payment approved")

	return c.JSON(t)
}

// Reject handles POST /api/admin/payments/:id/reject. A non-empty reason is
// mandatory; without one the transaction is left untouched.
func (h *AdminPaymentHandler) Reject(c *fiber.Ctx) error {
	adminID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid id"})
	}

	var req model.RejectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	t, err := h.service.Reject(c.Context(), transactionID, adminID, req.Reason)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("transaction_id", transactionID.String()).
			Str("admin_id", adminID.String()).
			Msg("failed to reject payment")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("transaction_id", t.ID.String()).
		Str("admin_id", adminID.String()).
		Msg("payment rejected")

	return c.JSON(t)
}

// Queue handles GET /api/admin/payments?verification_status=pending.
func (h *AdminPaymentHandler) Queue(c *fiber.Ctx) error {
	vs := model.VerificationStatus(c.Query("verification_status", string(model.VerificationPending)))
	switch vs {
	case model.VerificationPending, model.VerificationApproved, model.VerificationRejected:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: verification_status has an unsupported value"})
	}

	txs, err := h.service.ListByVerificationStatus(c.Context(), vs)
	if err != nil {
		log.Error().Err(err).Str("verification_status", string(vs)).Msg("failed to list verification queue")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"payments": txs})
}

// History handles GET /api/admin/payments/:id/history: the append-only
// audit trail for one transaction.
func (h *AdminPaymentHandler) History(c *fiber.Ctx) error {
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid id"})
	}

	entries, err := h.service.History(c.Context(), transactionID)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("transaction_id", transactionID.String()).Msg("failed to get payment history")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"history": entries})
}
