package accounts

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"pi-account-checker/core/reconcile"
	"pi-account-checker/core/session"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new accounts feature.
func NewFeature(local *LocalStore, reconciler *reconcile.Reconciler, sessionCfg session.Config, logger *zap.Logger) *Feature {
	svc := NewService(local, reconciler, sessionCfg, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service exposes the account service for callers outside the HTTP layer.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "accounts"
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
