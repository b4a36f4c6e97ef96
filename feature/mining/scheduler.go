package mining

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pi-account-checker/feature/accounts"
)

// Scheduler drives the two periodic loops: a fast display tick that
// re-resolves session statuses and persists demotions, and a slow sync tick
// that probes every account and reconciles the stores.
type Scheduler struct {
	accounts *accounts.Service
	mining   *Service
	logger   *zap.Logger

	displayEvery time.Duration
	syncEvery    time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler over the two services. Non-positive
// intervals fall back to the production defaults.
func NewScheduler(accountsSvc *accounts.Service, miningSvc *Service, displayEvery, syncEvery time.Duration, logger *zap.Logger) *Scheduler {
	if displayEvery <= 0 {
		displayEvery = time.Second
	}
	if syncEvery <= 0 {
		syncEvery = 30 * time.Minute
	}
	return &Scheduler{
		accounts:     accountsSvc,
		mining:       miningSvc,
		logger:       logger,
		displayEvery: displayEvery,
		syncEvery:    syncEvery,
	}
}

// Start launches both loops. Starting an already-running scheduler is a
// no-op; a stopped scheduler can be started again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.wg.Add(2)
	go s.displayLoop(s.stopCh)
	go s.syncLoop(s.stopCh)

	s.logger.Info("Scheduler started",
		zap.Duration("display_interval", s.displayEvery),
		zap.Duration("sync_interval", s.syncEvery))
}

// Stop halts both loops and waits for in-flight ticks to finish. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) displayLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.displayEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.displayTick()
		}
	}
}

func (s *Scheduler) syncLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.syncEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.syncTick()
		}
	}
}

func (s *Scheduler) displayTick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.displayEvery)
	defer cancel()

	if _, err := s.accounts.RefreshStatuses(ctx); err != nil {
		s.logger.Warn("Status refresh failed", zap.Error(err))
	}
}

func (s *Scheduler) syncTick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.syncEvery)
	defer cancel()

	probed, err := s.mining.ProbeAll(ctx)
	if err != nil {
		s.logger.Warn("Scheduled probe pass failed", zap.Error(err))
	}

	outcome, err := s.accounts.Sync(ctx, false)
	if err != nil {
		s.logger.Error("Scheduled sync failed", zap.Error(err))
		return
	}

	if outcome.Ran {
		s.logger.Info("Scheduled sync finished",
			zap.Int("probed", probed),
			zap.Int("pushed", outcome.Pushed),
			zap.Int("pulled", outcome.Pulled),
			zap.Int("skipped", outcome.Skipped))
	} else {
		s.logger.Info("Scheduled sync skipped",
			zap.Int("probed", probed),
			zap.String("reason", outcome.Reason))
	}
}
