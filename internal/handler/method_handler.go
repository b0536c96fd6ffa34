package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/learnloop/payments/internal/model"
)

// MethodServiceInterface defines payment method configuration logic.
type MethodServiceInterface interface {
	Upsert(ctx context.Context, provider string, req *model.UpsertPaymentMethodRequest) (*model.PaymentMethodConfig, error)
	List(ctx context.Context) ([]model.PaymentMethodConfig, error)
}

// MethodHandler handles HTTP requests for payment method configuration.
type MethodHandler struct {
	service   MethodServiceInterface
	validator *validator.Validate
}

// NewMethodHandler creates a new MethodHandler.
func NewMethodHandler(svc MethodServiceInterface, v *validator.Validate) *MethodHandler {
	return &MethodHandler{service: svc, validator: v}
}

// Upsert handles PUT /api/admin/payment-methods/:provider.
func (h *MethodHandler) Upsert(c *fiber.Ctx) error {
	provider := c.Params("provider")
	if provider == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: provider is required"})
	}

	var req model.UpsertPaymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	m, err := h.service.Upsert(c.Context(), provider, &req)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("provider", provider).Msg("failed to upsert payment method")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("provider", m.Provider).Bool("is_enabled", m.IsEnabled).Msg("payment method configured")
	return c.JSON(m)
}

// List handles GET /api/payment-methods.
func (h *MethodHandler) List(c *fiber.Ctx) error {
	methods, err := h.service.List(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list payment methods")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"payment_methods": methods})
}
