package mining

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"pi-account-checker/core/archive"
	"pi-account-checker/core/session"
	"pi-account-checker/feature/accounts"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new mining feature.
func NewFeature(store *accounts.LocalStore, prober *Prober, archiver *archive.Archiver, sessionCfg session.Config, logger *zap.Logger) *Feature {
	svc := NewService(store, prober, archiver, sessionCfg, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service exposes the mining service for the scheduler and CLI.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "mining"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
