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

// PaymentServiceInterface defines the learner-facing ledger operations.
type PaymentServiceInterface interface {
	Submit(ctx context.Context, userID uuid.UUID, req *model.SubmitPaymentRequest) (*model.PaymentTransaction, error)
	Cancel(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error)
	GetForUser(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.PaymentTransaction, error)
}

// ProofSigner issues presigned upload slots for payment proofs.
type ProofSigner interface {
	PresignUpload(userID uuid.UUID, filename, contentType string) (uploadURL, proofRef string, err error)
}

// PaymentHandler handles learner HTTP requests on the payment ledger.
type PaymentHandler struct {
	service   PaymentServiceInterface
	proofs    ProofSigner
	validator *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServiceInterface, proofs ProofSigner, v *validator.Validate) *PaymentHandler {
	return &PaymentHandler{service: svc, proofs: proofs, validator: v}
}

// Submit handles POST /api/payments.
func (h *PaymentHandler) Submit(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req model.SubmitPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	t, err := h.service.Submit(c.Context(), userID, &req)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("user_id", userID.String()).
			Str("payment_method", req.PaymentMethod).
			Msg("failed to submit payment")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("transaction_id", t.ID.String()).
		Str("user_id", userID.String()).
		Int64("total_amount", t.TotalAmount).
		Msg("payment submitted")

	return c.Status(fiber.StatusCreated).JSON(t)
}

// Cancel handles POST /api/payments/:id/cancel.
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid id"})
	}

	t, err := h.service.Cancel(c.Context(), transactionID, userID)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("transaction_id", transactionID.String()).
			Msg("failed to cancel payment")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("transaction_id", t.ID.String()).
		Str("user_id", userID.String()).
		Msg("payment cancelled")

	return c.JSON(t)
}

// Get handles GET /api/payments/:id.
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid id"})
	}

	t, err := h.service.GetForUser(c.Context(), transactionID, userID)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("transaction_id", transactionID.String()).Msg("failed to get payment")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(t)
}

// List handles GET /api/payments, the learner's own payment history.
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	txs, err := h.service.ListForUser(c.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list payments")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"payments": txs})
}

// ProofURL handles POST /api/payments/proof-url: issues a presigned upload
// slot and the proof reference to echo back on submission.
func (h *PaymentHandler) ProofURL(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	if h.proofs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "proof uploads are not configured"})
	}

	var req model.ProofUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	uploadURL, proofRef, err := h.proofs.PresignUpload(userID, req.Filename, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to presign proof upload")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(model.ProofUploadResponse{UploadURL: uploadURL, ProofRef: proofRef})
}
