package reconcile

import (
	"sync"
	"time"
)

// syncState is the run guard: an in-flight flag plus the completion time of
// the previous run. It is owned by a Reconciler instance rather than being a
// package-level global, so independent instances never interfere.
type syncState struct {
	mu       sync.Mutex
	inFlight bool
	lastRun  time.Time
}

// begin claims the guard for a new run. It fails with ErrSyncInFlight while
// another run holds the guard, and with ErrCooldown when the previous run
// completed less than cooldown ago and the caller did not force.
func (s *syncState) begin(now time.Time, cooldown time.Duration, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return ErrSyncInFlight
	}
	if !force && !s.lastRun.IsZero() && now.Sub(s.lastRun) < cooldown {
		return ErrCooldown
	}

	s.inFlight = true
	return nil
}

// end releases the guard and records the completion time.
func (s *syncState) end(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	s.lastRun = now
}

// LastRun returns when the previous run completed, or the zero time if no
// run has completed yet.
func (r *Reconciler) LastRun() time.Time {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.lastRun
}

// InFlight reports whether a run is currently in progress.
func (r *Reconciler) InFlight() bool {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.inFlight
}
