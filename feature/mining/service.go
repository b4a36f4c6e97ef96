package mining

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pi-account-checker/core/archive"
	"pi-account-checker/core/session"
	"pi-account-checker/feature/accounts"
	"pi-account-checker/feature/accounts/models"
)

// ErrNoAccessToken is returned when a probe is requested for an account
// that was registered without a token.
var ErrNoAccessToken = errors.New("account has no access token")

// ErrArchiveDisabled is returned when archive endpoints are hit with no
// archive configured.
var ErrArchiveDisabled = errors.New("probe archive is not configured")

// Service probes the upstream service and folds the result into the local
// store. Concurrent probes for the same phone are collapsed into one
// upstream call.
type Service struct {
	store      *accounts.LocalStore
	prober     *Prober
	archiver   *archive.Archiver
	sessionCfg session.Config
	logger     *zap.Logger
	group      singleflight.Group
	now        func() time.Time
}

// NewService creates a mining service. The archiver may be nil when no
// archive endpoint is configured; raw responses are then not retained.
func NewService(store *accounts.LocalStore, prober *Prober, archiver *archive.Archiver, sessionCfg session.Config, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		prober:     prober,
		archiver:   archiver,
		sessionCfg: sessionCfg,
		logger:     logger,
		now:        time.Now,
	}
}

// ProbeAndMerge probes one account and merges the result into its stored
// record, returning the account with its freshly resolved status. The
// display tick and the HTTP handler may race here; singleflight makes the
// loser share the winner's result instead of double-probing.
func (s *Service) ProbeAndMerge(ctx context.Context, phone string) (models.AccountStatus, error) {
	v, err, _ := s.group.Do(phone, func() (any, error) {
		return s.probeAndMerge(ctx, phone)
	})
	if err != nil {
		return models.AccountStatus{}, err
	}
	return v.(models.AccountStatus), nil
}

func (s *Service) probeAndMerge(ctx context.Context, phone string) (models.AccountStatus, error) {
	account, err := s.store.Get(ctx, phone)
	if err != nil {
		return models.AccountStatus{}, err
	}
	if account.AccessToken == "" {
		return models.AccountStatus{}, ErrNoAccessToken
	}

	wasActive := account.WasActive()
	now := s.now()

	result, err := s.prober.Probe(ctx, account.AccessToken)
	if err != nil {
		// A transport failure is still an observation: record it so the
		// resolver can reason about the staleness it causes.
		account.LastError = err.Error()
		account.UpdatedAt = now.UTC()
		if saveErr := s.store.Save(ctx, account); saveErr != nil {
			s.logger.Warn("Failed to record probe failure",
				zap.String("phone", phone), zap.Error(saveErr))
		}
		return models.AccountStatus{}, err
	}

	merge(&account, result, now)

	if err := s.store.Save(ctx, account); err != nil {
		return models.AccountStatus{}, err
	}

	if s.archiver != nil && len(result.Raw) > 0 {
		if err := s.archiver.Store(ctx, phone, result.Raw); err != nil {
			s.logger.Warn("Failed to archive probe response",
				zap.String("phone", phone), zap.Error(err))
		}
	}

	status := session.Resolve(account.SessionInput(), wasActive, now, s.sessionCfg)
	s.logger.Info("Probed account",
		zap.String("phone", phone),
		zap.Bool("active", status.Active))

	return models.AccountStatus{Account: account, Status: status}, nil
}

// ProbeAll probes every stored account sequentially, skipping failures.
// The sync tick calls this before reconciling so the pushed records are
// fresh.
func (s *Service) ProbeAll(ctx context.Context) (int, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	probed := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return probed, err
		}
		if _, err := s.ProbeAndMerge(ctx, row.Phone); err != nil {
			s.logger.Warn("Probe failed",
				zap.String("phone", row.Phone), zap.Error(err))
			continue
		}
		probed++
	}
	return probed, nil
}

// ArchivedProbes lists the archived probe responses for one phone, newest
// name last, as object names usable with ArchivedProbe.
func (s *Service) ArchivedProbes(ctx context.Context, phone string) ([]string, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}

	keys, err := s.archiver.List(ctx, phone)
	if err != nil {
		return nil, err
	}

	prefix := "probes/" + phone + "/"
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, strings.TrimPrefix(key, prefix))
	}
	return names, nil
}

// ArchivedProbe returns one archived raw probe response.
func (s *Service) ArchivedProbe(ctx context.Context, phone, object string) ([]byte, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archiver.Fetch(ctx, phone, object)
}

// StatusSummary is the aggregate session state across every account.
type StatusSummary struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Inactive    int `json:"inactive"`
	Uncertain   int `json:"uncertain"`
	KYCEligible int `json:"kyc_eligible"`
}

// Summarize resolves every account and returns the aggregate counts.
func (s *Service) Summarize(ctx context.Context) (StatusSummary, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return StatusSummary{}, err
	}

	now := s.now()
	summary := StatusSummary{Total: len(rows)}
	for _, row := range rows {
		status := session.Resolve(row.SessionInput(), row.WasActive(), now, s.sessionCfg)
		switch {
		case status.Active:
			summary.Active++
		case status.Uncertain:
			summary.Uncertain++
		default:
			summary.Inactive++
		}
		if status.KYCEligible {
			summary.KYCEligible++
		}
	}
	return summary, nil
}

// merge folds a probe result into the stored record. Absent fields leave
// the stored value alone; the clock is bumped because an observation
// happened either way.
func merge(account *models.Account, result *ProbeResult, now time.Time) {
	if result.Username != "" {
		account.Username = result.Username
	}
	if result.Balance != nil {
		account.Balance = result.Balance
	}
	if result.MiningActive != nil {
		account.MiningActive = result.MiningActive
	}
	if result.ExpiresAt != "" {
		account.ExpiresAt = result.ExpiresAt
	}
	if result.ValidUntil != "" {
		account.ValidUntil = result.ValidUntil
	}
	if result.LastMinedAt != "" {
		account.LastMinedAt = result.LastMinedAt
	}
	if result.HourlyRatio != nil {
		account.HourlyRatio = result.HourlyRatio
	}
	if result.TeamCount != nil {
		account.TeamCount = result.TeamCount
	}
	if result.MiningCount != nil {
		account.MiningCount = result.MiningCount
	}
	if result.CompletedSessions != nil {
		account.CompletedSessions = result.CompletedSessions
	}

	account.LastError = result.ErrorText
	if len(result.Raw) > 0 {
		account.Response = string(result.Raw)
	}
	account.UpdatedAt = now.UTC()
}
