package session

import (
	"strings"
	"time"
)

// alreadyRunningPattern is the probe error the service returns when a start
// attempt hits a session that is still running. Its presence is positive
// evidence of an active session even when every numeric field is unknown.
const alreadyRunningPattern = "can't start mining"

// Config holds the resolver thresholds. The observed production values are
// kept as named, overridable settings; the intent behind the exact numbers
// is not documented upstream, so they must not be re-derived.
type Config struct {
	// RecencyWindow is how far back a last-activity timestamp still
	// counts as evidence of an active session.
	RecencyWindow time.Duration

	// GraceWindow is how long past nominal expiry a record is soft-expired
	// instead of forcibly demoted, tolerating clock skew and late probes.
	GraceWindow time.Duration

	// KYCSessionThreshold is the completed-session count above which an
	// account is flagged as KYC-eligible.
	KYCSessionThreshold int
}

// DefaultConfig returns the thresholds observed in production.
func DefaultConfig() Config {
	return Config{
		RecencyWindow:       time.Hour,
		GraceWindow:         24 * time.Hour,
		KYCSessionThreshold: 30,
	}
}

// Input is the raw, possibly inconsistent signal set for one account. Every
// field may be absent or malformed; the resolver never rejects an Input.
type Input struct {
	// ActiveFlag is the explicit is-mining flag, when the record has one.
	ActiveFlag *bool

	// ValidUntil and ExpiresAt are the raw expiry timestamps as stored.
	// ExpiresAt reflects the longer session window and takes priority.
	ValidUntil string
	ExpiresAt  string

	// LastActivityAt is the raw timestamp of the most recent mining
	// activity.
	LastActivityAt string

	// LastError is the error text of the most recent probe attempt.
	LastError string

	// Response is the free-form blob of the most recent probe response.
	Response map[string]any

	// Authoritative numeric fields from the store record. Nil means
	// absent; the resolver then falls back to the Response blob.
	HourlyRatio       *float64
	TeamCount         *int
	MiningCount       *int
	CompletedSessions *int
}

// Status is the normalized session state for one account. It is derived,
// never persisted as source of truth, and recomputed on every tick.
type Status struct {
	// Active reports whether the background mining session is considered
	// running right now.
	Active bool `json:"active"`

	// ExpiresAt is the chosen session end time, or nil when no candidate
	// parsed.
	ExpiresAt *time.Time `json:"expires_at"`

	// Uncertain is set when expiry text exists but none of it parses.
	// The dashboard renders this as ??:??:?? rather than a countdown.
	Uncertain bool `json:"uncertain"`

	// Demoted signals that a previously-active record has just crossed
	// into inactive, so the caller can persist the demotion. The resolver
	// itself never writes storage.
	Demoted bool `json:"demoted"`

	HourlyRatio       *float64 `json:"hourly_ratio"`
	TeamCount         *int     `json:"team_count"`
	MiningCount       *int     `json:"mining_count"`
	CompletedSessions *int     `json:"completed_sessions"`

	// KYCEligible is set once the completed-session count exceeds the
	// configured threshold.
	KYCEligible bool `json:"kyc_eligible"`
}

// Resolve computes the Status for one account. It is a pure function of the
// input, the previous active state, and the supplied current time; the same
// arguments always yield the same result.
func Resolve(in Input, wasActive bool, now time.Time, cfg Config) Status {
	expiry, expiryPresent, expiryParsed := extractExpiry(in)

	hasFutureExpiry := expiryParsed && expiry.After(now)
	recentlyActive := isRecentlyActive(in.LastActivityAt, now, cfg.RecencyWindow)
	alreadyRunning := isAlreadyRunningError(in.LastError)

	active := (in.ActiveFlag != nil && *in.ActiveFlag) ||
		hasFutureExpiry || recentlyActive || alreadyRunning

	// Stale or missing expiry data must not be displayed as active
	// indefinitely. A fresh already-running probe error is the one signal
	// that escapes this: it proves a session exists even though the
	// record's timestamps are useless.
	switch {
	case !expiryParsed:
		if !alreadyRunning {
			active = false
		}
	case expiry.Before(now.Add(-cfg.GraceWindow)):
		if !alreadyRunning {
			active = false
		}
	case !expiry.After(now):
		// Expired but within the grace window: soft-expire. The record
		// keeps its previous state instead of being demoted on this tick.
		active = active || wasActive
	}

	status := Status{
		Active:            active,
		Uncertain:         expiryPresent && !expiryParsed,
		Demoted:           wasActive && !active,
		HourlyRatio:       in.HourlyRatio,
		TeamCount:         in.TeamCount,
		MiningCount:       in.MiningCount,
		CompletedSessions: in.CompletedSessions,
	}
	if expiryParsed {
		status.ExpiresAt = &expiry
	}

	// Authoritative values win; the probe blob only fills gaps.
	if status.HourlyRatio == nil {
		status.HourlyRatio = floatFromResponse(in.Response, hourlyRatioPaths)
	}
	if status.TeamCount == nil {
		status.TeamCount = intFromResponse(in.Response, teamCountPaths)
	}
	if status.MiningCount == nil {
		status.MiningCount = intFromResponse(in.Response, miningCountPaths)
	}
	if status.CompletedSessions == nil {
		status.CompletedSessions = intFromResponse(in.Response, completedSessionsPaths)
	}

	if status.CompletedSessions != nil && *status.CompletedSessions > cfg.KYCSessionThreshold {
		status.KYCEligible = true
	}

	return status
}

// isRecentlyActive reports whether the last activity timestamp parses and
// lies within the recency window of now, in either direction so modest
// clock skew doesn't hide fresh activity.
func isRecentlyActive(lastActivityAt string, now time.Time, window time.Duration) bool {
	t, ok := ParseTimestamp(lastActivityAt)
	if !ok {
		return false
	}
	delta := now.Sub(t)
	if delta < 0 {
		delta = -delta
	}
	return delta <= window
}

// isAlreadyRunningError matches the known "cannot start, already running"
// probe error text.
func isAlreadyRunningError(lastError string) bool {
	return strings.Contains(strings.ToLower(lastError), alreadyRunningPattern)
}
