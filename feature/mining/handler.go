package mining

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pi-account-checker/core/logger"
)

// Handler handles HTTP requests for mining.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the mining routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/mining")
	group.Get("/status", h.HandleStatus)
	group.Post("/:phone/probe", h.HandleProbe)
	group.Get("/:phone/archive", h.HandleArchiveList)
	group.Get("/:phone/archive/:object", h.HandleArchiveFetch)
}

// HandleArchiveList returns the archived probe response names for one phone.
func (h *Handler) HandleArchiveList(c *fiber.Ctx) error {
	phone := c.Params("phone")
	l := logger.WithRayID(h.service.logger, c)

	names, err := h.service.ArchivedProbes(c.Context(), phone)
	switch {
	case errors.Is(err, ErrArchiveDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		l.Error("Archive listing failed", zap.String("phone", phone), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"phone": phone, "objects": names})
}

// HandleArchiveFetch returns one archived raw probe response.
func (h *Handler) HandleArchiveFetch(c *fiber.Ctx) error {
	phone := c.Params("phone")
	object := c.Params("object")
	l := logger.WithRayID(h.service.logger, c)

	raw, err := h.service.ArchivedProbe(c.Context(), phone, object)
	switch {
	case errors.Is(err, ErrArchiveDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		l.Error("Archive fetch failed",
			zap.String("phone", phone), zap.String("object", object), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// HandleStatus returns the aggregate session state across all accounts.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	summary, err := h.service.Summarize(c.Context())
	if err != nil {
		l.Error("Status summary failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(summary)
}

// HandleProbe probes one account upstream and returns the merged record
// with its resolved status.
func (h *Handler) HandleProbe(c *fiber.Ctx) error {
	phone := c.Params("phone")
	l := logger.WithRayID(h.service.logger, c)

	status, err := h.service.ProbeAndMerge(c.Context(), phone)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "account not found",
		})
	case errors.Is(err, ErrNoAccessToken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		l.Error("Probe failed", zap.String("phone", phone), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(status)
}
