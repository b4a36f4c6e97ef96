package session

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"pi-account-checker/core/utils"
)

// timestampLayouts are the formats the third-party service has been observed
// to emit. Evaluated in order; first successful parse wins.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a timestamp defensively. It accepts ISO-8601 with or
// without a zone, and the service's truncated "+00" offset variant. Any
// string that fails to produce a valid date is reported as absent; this
// never panics or returns an error.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	// Postgres-style "+00" is not a valid RFC3339 offset; normalize it.
	if strings.HasSuffix(s, "+00") {
		s = strings.TrimSuffix(s, "+00") + "Z"
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// expiryRule is one entry in the ordered expiry extraction chain.
type expiryRule struct {
	name string
	get  func(Input) string
}

// expiryRules is the priority order for the session end time. expires_at
// reflects the longer-lived session window, so its variants outrank
// valid_until everywhere they appear.
var expiryRules = []expiryRule{
	{"expires_at", func(in Input) string { return in.ExpiresAt }},
	{"response.expires_at", func(in Input) string { return responseString(in.Response, "expires_at") }},
	{"valid_until", func(in Input) string { return in.ValidUntil }},
	{"response.valid_until", func(in Input) string { return responseString(in.Response, "valid_until") }},
	{"response.validUntil", func(in Input) string { return responseString(in.Response, "validUntil") }},
}

// extractExpiry walks the rule chain and returns the first candidate that
// parses. present reports whether any candidate carried text at all, parsed
// whether one of them produced a valid date. present-but-unparsed is the
// "uncertain" state the dashboard renders as ??:??:??.
func extractExpiry(in Input) (expiry time.Time, present, parsed bool) {
	for _, rule := range expiryRules {
		raw := rule.get(in)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		present = true
		if t, ok := ParseTimestamp(raw); ok {
			return t, true, true
		}
		zap.L().Debug("Expiry candidate failed to parse",
			zap.String("rule", rule.name),
			zap.String("raw", raw),
		)
	}
	return time.Time{}, present, false
}

// counterPaths lists where each numeric signal may hide inside the probe
// response blob, in priority order. The authoritative store record always
// wins; these are fallbacks only.
var (
	hourlyRatioPaths = [][]string{
		{"hourly_ratio"},
		{"earning_team", "hourly_ratio"},
		{"proof_of_presence", "hourly_ratio"},
	}
	teamCountPaths = [][]string{
		{"earning_team", "team_count"},
		{"proof_of_presence", "team_count"},
		{"team_count"},
	}
	miningCountPaths = [][]string{
		{"earning_team", "mining_count"},
		{"proof_of_presence", "mining_count"},
		{"mining_count"},
	}
	completedSessionsPaths = [][]string{
		{"completed_sessions_count"},
		{"proof_of_presence", "completed_sessions_count"},
	}
)

// responseString returns a string field from the response blob, or "".
func responseString(response map[string]any, key string) string {
	if response == nil {
		return ""
	}
	val, ok := response[key]
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// lookup digs a nested value out of the response blob. Missing keys and
// wrong shapes both come back as absent.
func lookup(response map[string]any, path []string) (any, bool) {
	var current any = response
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

// floatFromResponse returns the first numeric match on any of the paths.
func floatFromResponse(response map[string]any, paths [][]string) *float64 {
	for _, path := range paths {
		if val, ok := lookup(response, path); ok && utils.IsNumeric(val) {
			f := utils.ToFloat(val)
			return &f
		}
	}
	return nil
}

// intFromResponse returns the first numeric match on any of the paths.
func intFromResponse(response map[string]any, paths [][]string) *int {
	for _, path := range paths {
		if val, ok := lookup(response, path); ok && utils.IsNumeric(val) {
			i := utils.ToInt(val)
			return &i
		}
	}
	return nil
}
