package handler

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/learnloop/payments/internal/model"
)

// PromoServiceInterface defines promo code business logic.
type PromoServiceInterface interface {
	Create(ctx context.Context, req *model.CreatePromoCodeRequest) (*model.PromoCode, error)
	Validate(ctx context.Context, code string, targetType model.TargetType, targetID uuid.UUID, now time.Time) (*model.Discount, error)
	Get(ctx context.Context, code string) (*model.PromoCodeResponse, error)
	List(ctx context.Context) ([]model.PromoCodeResponse, error)
	Deactivate(ctx context.Context, code string) error
}

// PromoHandler handles HTTP requests for promo codes.
type PromoHandler struct {
	service   PromoServiceInterface
	validator *validator.Validate
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(svc PromoServiceInterface, v *validator.Validate) *PromoHandler {
	return &PromoHandler{service: svc, validator: v}
}

// Create handles POST /api/admin/promo-codes.
func (h *PromoHandler) Create(c *fiber.Ctx) error {
	var req model.CreatePromoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	p, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("code", req.Code).Msg("failed to create promo code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("code", p.Code).Str("discount_type", string(p.DiscountType)).Msg("promo code created")
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Validate handles POST /api/promo-codes/validate: a read-only preview a
// learner runs before submitting. It never consumes a usage slot.
func (h *PromoHandler) Validate(c *fiber.Ctx) error {
	var req model.ValidatePromoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: TargetID must be a valid id"})
	}

	discount, err := h.service.Validate(c.Context(), req.Code, model.TargetType(req.TargetType), targetID, time.Now())
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("code", req.Code).Msg("failed to validate promo code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"ok": true, "discount": discount})
}

// Get handles GET /api/admin/promo-codes/:code.
func (h *PromoHandler) Get(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}

	p, err := h.service.Get(c.Context(), code)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("code", code).Msg("failed to get promo code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(p)
}

// List handles GET /api/admin/promo-codes.
func (h *PromoHandler) List(c *fiber.Ctx) error {
	codes, err := h.service.List(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list promo codes")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"promo_codes": codes})
}

// Deactivate handles DELETE /api/admin/promo-codes/:code. Codes are
// soft-disabled, never removed.
func (h *PromoHandler) Deactivate(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}

	if err := h.service.Deactivate(c.Context(), code); err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("code", code).Msg("failed to deactivate promo code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("code", code).Msg("promo code deactivated")
	return c.SendStatus(fiber.StatusNoContent)
}
