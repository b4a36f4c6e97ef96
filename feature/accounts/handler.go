package accounts

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pi-account-checker/core/logger"
)

// Handler handles HTTP requests for accounts.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the account routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/accounts")
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleRegister)
	group.Get("/:phone", h.HandleGet)
	group.Post("/sync", h.HandleSync)
}

type registerRequest struct {
	Phone       string `json:"phone"`
	AccessToken string `json:"access_token"`
}

// HandleList returns every account with its resolved session status.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	statuses, err := h.service.List(c.Context())
	if err != nil {
		l.Error("Account listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(statuses)
}

// HandleRegister stores a new account stub.
func (h *Handler) HandleRegister(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	account, err := h.service.Register(c.Context(), req.Phone, req.AccessToken)
	if err != nil {
		l.Error("Account registration failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(account)
}

// HandleGet returns one account with its resolved session status.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	phone := c.Params("phone")
	l := logger.WithRayID(h.service.logger, c)

	status, err := h.service.Get(c.Context(), phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "account not found",
		})
	}
	if err != nil {
		l.Error("Account lookup failed", zap.String("phone", phone), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(status)
}

// HandleSync triggers one reconciliation pass. The force query parameter
// bypasses the cooldown.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	force := c.QueryBool("force")

	outcome, err := h.service.Sync(c.Context(), force)
	if err != nil {
		l.Error("Sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	code := fiber.StatusOK
	if !outcome.Ran {
		code = fiber.StatusAccepted
	}
	return c.Status(code).JSON(outcome)
}
