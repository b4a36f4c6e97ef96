package reconcile

import (
	"context"
	"errors"
	"time"
)

// Record is a single per-entity row as seen by the sync engine.
// The engine only interprets Key and UpdatedAt; Payload is carried verbatim.
type Record struct {
	// Key is the stable unique identifier for the entity (a phone number).
	Key string `json:"key"`

	// UpdatedAt is the timestamp of the last mutation and acts as the
	// last-writer-wins clock. The zero value means "infinitely old".
	UpdatedAt time.Time `json:"updated_at"`

	// Payload holds the domain fields (balance, mining state, counters).
	// Opaque to the engine.
	Payload map[string]any `json:"payload"`
}

// LocalStore is the on-device persistent store.
type LocalStore interface {
	// GetAll returns every record in the local store.
	GetAll(ctx context.Context) ([]Record, error)

	// Put upserts a single record by key.
	Put(ctx context.Context, rec Record) error
}

// RemoteStore is the shared remote database.
type RemoteStore interface {
	// SelectByKeys returns the records for the given key set.
	// An empty or nil key set selects every record; the engine relies on
	// this to discover keys that exist only remotely.
	SelectByKeys(ctx context.Context, keys []string) ([]Record, error)

	// UpsertBatch upserts records by their unique key. Implementations
	// may reject oversized batches; the engine never sends more than the
	// configured batch size per call.
	UpsertBatch(ctx context.Context, recs []Record) error
}

// Plan is the set of one-directional copies needed for both stores to agree.
type Plan struct {
	// PushRemote are local records that must be upserted remotely.
	PushRemote []Record `json:"push_remote"`

	// PullLocal are remote records that must be written locally.
	PullLocal []Record `json:"pull_local"`

	// Summary provides aggregate counts for reporting.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a sync plan.
type PlanSummary struct {
	// TotalKeys is the number of distinct keys across both stores.
	TotalKeys int `json:"total_keys"`

	// LocalOnly counts keys present only in the local store.
	LocalOnly int `json:"local_only"`

	// RemoteOnly counts keys present only in the remote store.
	RemoteOnly int `json:"remote_only"`

	// LocalNewer counts keys where the local copy wins.
	LocalNewer int `json:"local_newer"`

	// RemoteNewer counts keys where the remote copy wins.
	RemoteNewer int `json:"remote_newer"`

	// InSync counts keys whose timestamps already agree.
	InSync int `json:"in_sync"`
}

// Result reports what a completed run actually did.
type Result struct {
	// Pushed is the number of records upserted remotely.
	Pushed int `json:"pushed"`

	// Pulled is the number of records written locally.
	Pulled int `json:"pulled"`

	// Skipped counts records whose individual writes failed and were
	// logged and left behind for a later run.
	Skipped int `json:"skipped"`

	// Summary is the plan this run applied.
	Summary PlanSummary `json:"summary"`
}

// DidWork reports whether the run moved any records at all, letting the
// caller distinguish "nothing to sync" from "synced N records".
func (r *Result) DidWork() bool {
	return r.Pushed+r.Pulled > 0
}

// Options tunes the apply phase and the run guard.
type Options struct {
	// BatchSize caps how many records go into a single remote upsert.
	// The remote service rejects large batches, so this defaults to 10.
	BatchSize int

	// BatchDelay is the pause between remote upsert batches, keeping the
	// run under the remote service's rate limits. Defaults to 300ms.
	BatchDelay time.Duration

	// Cooldown is the minimum gap between completed runs. A run started
	// within the cooldown fails with ErrCooldown unless forced.
	// Defaults to 5 minutes.
	Cooldown time.Duration
}

const (
	defaultBatchSize  = 10
	defaultBatchDelay = 300 * time.Millisecond
	defaultCooldown   = 5 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.BatchDelay == 0 {
		o.BatchDelay = defaultBatchDelay
	}
	if o.BatchDelay < 0 {
		// Negative means "no delay", used by tests and one-shot CLI runs.
		o.BatchDelay = 0
	}
	if o.Cooldown <= 0 {
		o.Cooldown = defaultCooldown
	}
	return o
}

// ErrSyncInFlight is returned when a run is requested while another run of
// the same Reconciler is still in progress.
var ErrSyncInFlight = errors.New("reconcile: sync already in flight")

// ErrCooldown is returned when a run is requested before the cooldown window
// since the previous completed run has elapsed.
var ErrCooldown = errors.New("reconcile: cooldown window not elapsed")
