// Package session derives a normalized mining-session status from the
// heterogeneous, partially-overlapping signals a raw account record carries.
//
// The third-party service has reported session expiry under several field
// names over time (expires_at, valid_until, validUntil), sometimes at the
// top level of the record and sometimes nested inside the raw probe response
// blob, with counters tucked under earning_team or proof_of_presence
// sub-objects. This package evaluates one documented, ordered list of
// extraction rules instead of scattering the fallbacks through the UI.
//
// Resolve is a pure function of the input record and the current time, so a
// record is never "sticky": status is recomputed on every display tick.
// Stale or missing expiry data is treated conservatively (forced inactive)
// while a bounded grace window after nominal expiry tolerates clock skew and
// late probe responses.
package session
