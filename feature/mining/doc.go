// Package mining implements the mining-session probing feature.
//
// It calls the upstream service for each tracked account, folds the
// response into the local store, archives the raw body, and resolves the
// session status via core/session. Concurrent probes for the same phone
// are collapsed with singleflight.
//
// # Components
//
//   - Prober: The upstream HTTP client.
//   - Service: Probe-and-merge orchestration plus the probe-all pass.
//   - Scheduler: The display tick (status refresh) and the sync tick
//     (probe all, then reconcile).
//   - Handler: Exposes the probe endpoint.
//
// # HTTP Endpoints
//
//   - POST /mining/:phone/probe : Probe one account and return the merged
//     record with its resolved status.
//   - GET  /mining/status       : Aggregate session counts across accounts.
//   - GET  /mining/:phone/archive          : List archived probe responses.
//   - GET  /mining/:phone/archive/:object  : Fetch one archived response.
package mining
