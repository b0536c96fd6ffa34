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

// RefundServiceInterface defines refund business logic.
type RefundServiceInterface interface {
	Create(ctx context.Context, requesterID uuid.UUID, req *model.CreateRefundRequest) (*model.RefundRequest, error)
	Decide(ctx context.Context, refundID, adminID uuid.UUID, approve bool, notes string) (*model.RefundRequest, error)
}

// RefundHandler handles HTTP requests for refund requests.
type RefundHandler struct {
	service   RefundServiceInterface
	validator *validator.Validate
}

// NewRefundHandler creates a new RefundHandler.
func NewRefundHandler(svc RefundServiceInterface, v *validator.Validate) *RefundHandler {
	return &RefundHandler{service: svc, validator: v}
}

// Create handles POST /api/refunds.
func (h *RefundHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req model.CreateRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	rr, err := h.service.Create(c.Context(), userID, &req)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("user_id", userID.String()).
			Str("transaction_id", req.TransactionID).
			Msg("failed to create refund request")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("refund_id", rr.ID.String()).
		Str("transaction_id", rr.TransactionID.String()).
		Int64("refund_amount", rr.RefundAmount).
		Msg("refund request created")

	return c.Status(fiber.StatusCreated).JSON(rr)
}

// Decide handles POST /api/admin/refunds/:id/decide.
func (h *RefundHandler) Decide(c *fiber.Ctx) error {
	adminID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	refundID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid id"})
	}

	var req model.DecideRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	rr, err := h.service.Decide(c.Context(), refundID, adminID, *req.Approve, req.Notes)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().
			Err(err).
			Str("refund_id", refundID.String()).
			Str("admin_id", adminID.String()).
			Msg("failed to decide refund request")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("refund_id", rr.ID.String()).
		Str("status", string(rr.Status)).
		Str("admin_id", adminID.String()).
		Msg("refund request decided")

	return c.JSON(rr)
}
