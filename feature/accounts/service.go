package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pi-account-checker/core/reconcile"
	"pi-account-checker/core/session"
	"pi-account-checker/feature/accounts/models"
)

// SyncOutcome reports what a sync request actually did. A request refused by
// the in-flight guard or the cooldown is a normal outcome, not an error.
type SyncOutcome struct {
	Ran     bool                   `json:"ran"`
	Reason  string                 `json:"reason,omitempty"`
	Pushed  int                    `json:"pushed"`
	Pulled  int                    `json:"pulled"`
	Skipped int                    `json:"skipped"`
	Summary *reconcile.PlanSummary `json:"summary,omitempty"`
}

// Service handles account operations: registration, listing with resolved
// session status, and triggering synchronization.
type Service struct {
	local      *LocalStore
	reconciler *reconcile.Reconciler
	sessionCfg session.Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new account service. The reconciler may be nil when
// no remote database is configured; Sync then reports that it cannot run.
func NewService(local *LocalStore, reconciler *reconcile.Reconciler, sessionCfg session.Config, logger *zap.Logger) *Service {
	return &Service{
		local:      local,
		reconciler: reconciler,
		sessionCfg: sessionCfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Register stores a new account stub. The first probe fills in the rest.
func (s *Service) Register(ctx context.Context, phone, accessToken string) (models.Account, error) {
	if phone == "" {
		return models.Account{}, errors.New("phone is required")
	}

	account := models.Account{
		Phone:       phone,
		AccessToken: accessToken,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.local.Save(ctx, account); err != nil {
		return models.Account{}, err
	}

	s.logger.Info("Registered account", zap.String("phone", phone))
	return account, nil
}

// List returns every account with its freshly resolved session status.
func (s *Service) List(ctx context.Context) ([]models.AccountStatus, error) {
	rows, err := s.local.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]models.AccountStatus, 0, len(rows))
	for _, row := range rows {
		status := session.Resolve(row.SessionInput(), row.WasActive(), now, s.sessionCfg)
		out = append(out, models.AccountStatus{Account: row, Status: status})
	}
	return out, nil
}

// Get returns one account with its resolved status.
func (s *Service) Get(ctx context.Context, phone string) (models.AccountStatus, error) {
	account, err := s.local.Get(ctx, phone)
	if err != nil {
		return models.AccountStatus{}, err
	}
	status := session.Resolve(account.SessionInput(), account.WasActive(), s.now(), s.sessionCfg)
	return models.AccountStatus{Account: account, Status: status}, nil
}

// Sync runs one reconciliation pass against the remote database.
func (s *Service) Sync(ctx context.Context, force bool) (SyncOutcome, error) {
	if s.reconciler == nil {
		return SyncOutcome{Reason: "no remote database configured"}, nil
	}

	result, err := s.reconciler.Run(ctx, force)
	switch {
	case errors.Is(err, reconcile.ErrSyncInFlight):
		return SyncOutcome{Reason: "sync already in progress"}, nil
	case errors.Is(err, reconcile.ErrCooldown):
		return SyncOutcome{Reason: "sync cooldown active"}, nil
	case err != nil:
		return SyncOutcome{}, fmt.Errorf("sync failed: %w", err)
	}

	return SyncOutcome{
		Ran:     true,
		Pushed:  result.Pushed,
		Pulled:  result.Pulled,
		Skipped: result.Skipped,
		Summary: &result.Summary,
	}, nil
}

// RefreshStatuses re-resolves every account and persists demotions, so a
// stale active flag does not survive on disk either. Individual write
// failures are logged and skipped.
func (s *Service) RefreshStatuses(ctx context.Context) (int, error) {
	rows, err := s.local.List(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	demoted := 0
	for _, row := range rows {
		status := session.Resolve(row.SessionInput(), row.WasActive(), now, s.sessionCfg)
		if !status.Demoted {
			continue
		}
		if err := s.local.Touch(ctx, row.Phone, false, now.UTC()); err != nil {
			s.logger.Warn("Failed to persist demotion",
				zap.String("phone", row.Phone), zap.Error(err))
			continue
		}
		demoted++
		s.logger.Info("Demoted stale mining session", zap.String("phone", row.Phone))
	}
	return demoted, nil
}
