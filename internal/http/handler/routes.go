package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"comicapi/internal/http/middleware"
	"comicapi/internal/imagegen"
	"comicapi/internal/logging"
	"comicapi/internal/model"
	"comicapi/internal/service"
)

const msgNotConfigured = "OPENAI_API_KEY is not configured in environment or .env file."

var msgTextTooShort = fmt.Sprintf("Text must be at least %d characters long.", service.MinTextLength)

// RegisterRoutes attaches the API routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, svc service.ImageService, log *logging.Logger) {
	app.Get("/health", Health())
	app.Get("/healthz", LivenessProbe())
	app.Post("/generate", GenerateImage(svc, log))
	app.Get("/images", ListImages(svc, log))
}

// Health godoc
// @Summary  Health check
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]string
// @Router   /health [get]
func Health() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// LivenessProbe is a bare 200 for orchestrators.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// GenerateImage godoc
// @Summary  Generate a new comic panel
// @Tags     images
// @Accept   json
// @Produce  json
// @Param    request body     model.GenerationRequest true "Scene description"
// @Success  200     {object} model.GenerationResult
// @Failure  400     {object} errorPayload
// @Failure  500     {object} errorPayload
// @Router   /generate [post]
func GenerateImage(svc service.ImageService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.GenerationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON like {\"text\": \"...\"}")
		}

		res, err := svc.Generate(c.UserContext(), req.Text)
		if err == nil {
			return c.JSON(res)
		}

		var genErr *service.GenerationError
		switch {
		case errors.Is(err, service.ErrTextTooShort):
			return writeError(c, fiber.StatusBadRequest, "TEXT_TOO_SHORT", msgTextTooShort)
		case errors.Is(err, service.ErrNotConfigured):
			return writeError(c, fiber.StatusInternalServerError, "NOT_CONFIGURED", msgNotConfigured)
		case errors.As(err, &genErr):
			log.Error("image_generation_failed", err, map[string]any{"request_id": middleware.RequestIDFromCtx(c)})
			code := "GENERATION_FAILED"
			if errors.Is(err, imagegen.ErrNoImageData) {
				code = "NO_IMAGE_DATA"
			}
			return writeError(c, fiber.StatusInternalServerError, code, fmt.Sprintf("Image generation failed: %v", genErr.Err))
		default:
			log.Error("image_generation_failed", err, map[string]any{"request_id": middleware.RequestIDFromCtx(c)})
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// ListImages godoc
// @Summary  List recently generated images
// @Tags     images
// @Produce  json
// @Success  200 {array}  model.ListedImage
// @Failure  500 {object} errorPayload
// @Router   /images [get]
func ListImages(svc service.ImageService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			log.Error("list_images_failed", err, map[string]any{"request_id": middleware.RequestIDFromCtx(c)})
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if items == nil {
			items = []model.ListedImage{}
		}
		return c.JSON(items)
	}
}
