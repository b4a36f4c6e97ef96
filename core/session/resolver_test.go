package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool       { return &b }
func intPtr(i int) *int          { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestResolve_FutureExpiryIsActive(t *testing.T) {
	in := Input{ExpiresAt: now.Add(3 * time.Hour).Format(time.RFC3339)}

	status := Resolve(in, false, now, DefaultConfig())

	assert.True(t, status.Active)
	require.NotNil(t, status.ExpiresAt)
	assert.Equal(t, now.Add(3*time.Hour), *status.ExpiresAt)
	assert.False(t, status.Uncertain)
}

func TestResolve_ExpiresAtPreferredOverValidUntil(t *testing.T) {
	in := Input{
		ValidUntil: now.Add(time.Hour).Format(time.RFC3339),
		ExpiresAt:  now.Add(6 * time.Hour).Format(time.RFC3339),
	}

	status := Resolve(in, false, now, DefaultConfig())

	require.NotNil(t, status.ExpiresAt)
	assert.Equal(t, now.Add(6*time.Hour), *status.ExpiresAt)
}

func TestResolve_CountersAloneNeverCountAsActive(t *testing.T) {
	// The forced-inactive rule: present counters are not evidence of a
	// valid end time.
	in := Input{
		CompletedSessions: intPtr(50),
		HourlyRatio:       floatPtr(0.01),
		TeamCount:         intPtr(3),
	}

	status := Resolve(in, false, now, DefaultConfig())

	assert.False(t, status.Active)
	assert.Nil(t, status.ExpiresAt)
	assert.True(t, status.KYCEligible)
}

func TestResolve_MissingExpiryForcesInactiveDespiteFlag(t *testing.T) {
	in := Input{ActiveFlag: boolPtr(true)}

	status := Resolve(in, true, now, DefaultConfig())

	assert.False(t, status.Active)
	assert.True(t, status.Demoted)
}

func TestResolve_GraceWindowSoftExpire(t *testing.T) {
	// Expired two hours ago, well within the 24h grace window, previously
	// active: not demoted on this tick alone.
	in := Input{ExpiresAt: now.Add(-2 * time.Hour).Format(time.RFC3339)}

	status := Resolve(in, true, now, DefaultConfig())

	assert.True(t, status.Active)
	assert.False(t, status.Demoted)
}

func TestResolve_GraceWindowDoesNotResurrect(t *testing.T) {
	// Same expired-within-grace record, but previously inactive: stays
	// inactive.
	in := Input{ExpiresAt: now.Add(-2 * time.Hour).Format(time.RFC3339)}

	status := Resolve(in, false, now, DefaultConfig())

	assert.False(t, status.Active)
	assert.False(t, status.Demoted)
}

func TestResolve_ExpiryBeyondGraceForcesInactive(t *testing.T) {
	in := Input{
		ActiveFlag: boolPtr(true),
		ExpiresAt:  now.Add(-25 * time.Hour).Format(time.RFC3339),
	}

	status := Resolve(in, true, now, DefaultConfig())

	assert.False(t, status.Active)
	assert.True(t, status.Demoted)
}

func TestResolve_AlreadyRunningErrorOverride(t *testing.T) {
	in := Input{LastError: "Error: You can't start mining at the moment"}

	status := Resolve(in, false, now, DefaultConfig())

	assert.True(t, status.Active)
	assert.Nil(t, status.ExpiresAt)
	assert.Nil(t, status.HourlyRatio)
	assert.Nil(t, status.TeamCount)
	assert.Nil(t, status.MiningCount)
	assert.Nil(t, status.CompletedSessions)
}

func TestResolve_RecentActivityIsActive(t *testing.T) {
	in := Input{
		ExpiresAt:      now.Add(time.Hour).Format(time.RFC3339),
		LastActivityAt: now.Add(-30 * time.Minute).Format(time.RFC3339),
	}

	status := Resolve(in, false, now, DefaultConfig())
	assert.True(t, status.Active)

	// Activity alone, outside the recency window, is not enough once the
	// expiry is gone.
	stale := Input{LastActivityAt: now.Add(-2 * time.Hour).Format(time.RFC3339)}
	status = Resolve(stale, false, now, DefaultConfig())
	assert.False(t, status.Active)
}

func TestResolve_UnparsableExpiryIsUncertain(t *testing.T) {
	in := Input{ExpiresAt: "not-a-date"}

	status := Resolve(in, true, now, DefaultConfig())

	assert.True(t, status.Uncertain)
	assert.False(t, status.Active)
	assert.True(t, status.Demoted)
	assert.Nil(t, status.ExpiresAt)
}

func TestResolve_NoExpiryTextIsNotUncertain(t *testing.T) {
	status := Resolve(Input{}, false, now, DefaultConfig())

	assert.False(t, status.Uncertain)
	assert.False(t, status.Active)
	assert.False(t, status.Demoted)
}

func TestResolve_NumericFallbackFromResponseBlob(t *testing.T) {
	in := Input{
		ExpiresAt:   now.Add(time.Hour).Format(time.RFC3339),
		HourlyRatio: floatPtr(0.05), // authoritative, must win
		Response: map[string]any{
			"hourly_ratio":             0.01,
			"completed_sessions_count": float64(12),
			"earning_team": map[string]any{
				"team_count":   float64(4),
				"mining_count": float64(2),
			},
		},
	}

	status := Resolve(in, false, now, DefaultConfig())

	require.NotNil(t, status.HourlyRatio)
	assert.Equal(t, 0.05, *status.HourlyRatio)
	require.NotNil(t, status.TeamCount)
	assert.Equal(t, 4, *status.TeamCount)
	require.NotNil(t, status.MiningCount)
	assert.Equal(t, 2, *status.MiningCount)
	require.NotNil(t, status.CompletedSessions)
	assert.Equal(t, 12, *status.CompletedSessions)
	assert.False(t, status.KYCEligible)
}

func TestResolve_KYCThresholdIsExclusive(t *testing.T) {
	cfg := DefaultConfig()
	in := Input{CompletedSessions: intPtr(30)}
	assert.False(t, Resolve(in, false, now, cfg).KYCEligible)

	in.CompletedSessions = intPtr(31)
	assert.True(t, Resolve(in, false, now, cfg).KYCEligible)
}

func TestResolve_Purity(t *testing.T) {
	in := Input{
		ExpiresAt:      now.Add(time.Hour).Format(time.RFC3339),
		LastActivityAt: now.Add(-10 * time.Minute).Format(time.RFC3339),
		Response:       map[string]any{"hourly_ratio": 0.02},
	}

	first := Resolve(in, true, now, DefaultConfig())
	second := Resolve(in, true, now, DefaultConfig())

	assert.Equal(t, first, second)
}
