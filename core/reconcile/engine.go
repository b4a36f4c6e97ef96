package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reconciler synchronizes the local and remote account stores.
type Reconciler struct {
	local  LocalStore
	remote RemoteStore
	logger *zap.Logger
	opts   Options
	state  syncState

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Reconciler over the two stores. Zero option fields fall back
// to their defaults.
func New(local LocalStore, remote RemoteStore, logger *zap.Logger, opts Options) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		local:  local,
		remote: remote,
		logger: logger,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

// Run performs one full reconciliation pass: snapshot both stores, compute
// the plan, then apply it. Record-level write failures are logged and
// skipped; a store that cannot be snapshotted at all aborts the run before
// anything is written.
//
// Run refuses to start while a previous run is in flight, and honors the
// cooldown window since the last completed run unless force is set. Both
// refusals surface as sentinel errors (ErrSyncInFlight, ErrCooldown) so the
// caller can present them as "nothing to sync" rather than a failure.
func (r *Reconciler) Run(ctx context.Context, force bool) (*Result, error) {
	if err := r.state.begin(r.now(), r.opts.Cooldown, force); err != nil {
		return nil, err
	}
	defer func() { r.state.end(r.now()) }()

	local, remote, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	plan := ComputePlan(local, remote)
	r.logger.Debug("Sync plan computed",
		zap.Int("total_keys", plan.Summary.TotalKeys),
		zap.Int("push_remote", len(plan.PushRemote)),
		zap.Int("pull_local", len(plan.PullLocal)),
	)

	result := &Result{Summary: plan.Summary}
	r.applyPulls(ctx, plan.PullLocal, result)
	if err := r.applyPushes(ctx, plan.PushRemote, result); err != nil {
		return result, err
	}

	r.logger.Info("Sync run finished",
		zap.Int("pushed", result.Pushed),
		zap.Int("pulled", result.Pulled),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// snapshot loads both stores concurrently. Either side failing is systemic:
// the run aborts and nothing gets written.
func (r *Reconciler) snapshot(ctx context.Context) (local, remote []Record, err error) {
	var (
		localErr  error
		remoteErr error
		wg        sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		local, localErr = r.local.GetAll(ctx)
	}()

	go func() {
		defer wg.Done()
		// Empty key set selects everything, including remote-only keys.
		remote, remoteErr = r.remote.SelectByKeys(ctx, nil)
	}()

	wg.Wait()

	if localErr != nil {
		return nil, nil, fmt.Errorf("failed to snapshot local store: %w", localErr)
	}
	if remoteErr != nil {
		return nil, nil, fmt.Errorf("failed to snapshot remote store: %w", remoteErr)
	}
	return local, remote, nil
}

// applyPulls writes remote-winning records into the local store one by one.
// A failed write is logged and skipped; it never aborts the rest.
func (r *Reconciler) applyPulls(ctx context.Context, pulls []Record, result *Result) {
	for _, rec := range pulls {
		if err := r.local.Put(ctx, rec); err != nil {
			r.logger.Warn("Failed to pull record to local store",
				zap.String("key", rec.Key),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		result.Pulled++
	}
}

// applyPushes upserts local-winning records remotely in capped batches with
// a small delay between batches. A failed batch is logged and skipped; the
// remaining batches still run. Context cancellation stops the loop.
func (r *Reconciler) applyPushes(ctx context.Context, pushes []Record, result *Result) error {
	for start := 0; start < len(pushes); start += r.opts.BatchSize {
		end := start + r.opts.BatchSize
		if end > len(pushes) {
			end = len(pushes)
		}
		batch := pushes[start:end]

		if start > 0 {
			if err := sleepContext(ctx, r.opts.BatchDelay); err != nil {
				return err
			}
		}

		if err := r.remote.UpsertBatch(ctx, batch); err != nil {
			r.logger.Warn("Failed to push batch to remote store",
				zap.Int("batch_size", len(batch)),
				zap.String("first_key", batch[0].Key),
				zap.Error(err),
			)
			result.Skipped += len(batch)
			continue
		}
		result.Pushed += len(batch)
	}
	return nil
}

// sleepContext pauses for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
