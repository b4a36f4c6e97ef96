// Package reconcile implements bidirectional last-writer-wins synchronization
// between two independently writable account stores: the on-device cache and
// the shared remote database.
//
// # Model
//
// Each store holds at most one Record per key. A Record carries an opaque
// payload plus an UpdatedAt timestamp which acts as the conflict-resolution
// clock. A missing timestamp is treated as infinitely old.
//
// # Plan / Apply split
//
// ComputePlan is a pure function: given both snapshots it derives the minimal
// set of one-directional copies (push-to-remote, pull-to-local) needed for
// both stores to converge. The Reconciler then applies the plan, batching
// remote upserts and tolerating record-level write failures.
//
// # Guarding
//
// A Reconciler refuses to start while a previous run is still in flight, and
// honors a cooldown window between completed runs unless forced. The guard
// state is owned by the Reconciler instance, so independent instances can be
// tested side by side.
package reconcile
