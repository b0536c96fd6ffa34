package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/learnloop/payments/internal/model"
)

// BundleServiceInterface defines bundle business logic.
type BundleServiceInterface interface {
	Create(ctx context.Context, req *model.CreateBundleRequest) (*model.BundleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*model.BundleResponse, error)
}

// BundleHandler handles HTTP requests for bundles.
type BundleHandler struct {
	service   BundleServiceInterface
	validator *validator.Validate
}

// NewBundleHandler creates a new BundleHandler.
func NewBundleHandler(svc BundleServiceInterface, v *validator.Validate) *BundleHandler {
	return &BundleHandler{service: svc, validator: v}
}

// Create handles POST /api/admin/bundles.
func (h *BundleHandler) Create(c *fiber.Ctx) error {
	var req model.CreateBundleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	b, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("title", req.Title).Msg("failed to create bundle")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("bundle_id", b.ID.String()).
		Int("course_count", b.CourseCount).
		Int64("discounted_price", b.DiscountedPrice).
		Msg("bundle created")

	return c.Status(fiber.StatusCreated).JSON(b)
}

// Get handles GET /api/bundles/:id.
func (h *BundleHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid id"})
	}

	b, err := h.service.Get(c.Context(), id)
	if err != nil {
		if status, msg, known := mapServiceError(err); known {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("bundle_id", id.String()).Msg("failed to get bundle")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(b)
}
