package mining

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_ParsesFullResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proof_of_presences", r.URL.Path)
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"username": "pioneer42",
			"balance": 12.5,
			"mining_active": true,
			"expires_at": "2024-03-02T12:00:00Z",
			"hourly_ratio": 0.25,
			"earning_team": {"team_count": 4},
			"completed_sessions_count": 31
		}`))
	}))
	defer srv.Close()

	prober := NewProber(srv.URL, 5*time.Second)
	result, err := prober.Probe(context.Background(), "tok-abc")
	require.NoError(t, err)

	assert.Equal(t, "pioneer42", result.Username)
	require.NotNil(t, result.Balance)
	assert.Equal(t, 12.5, *result.Balance)
	require.NotNil(t, result.MiningActive)
	assert.True(t, *result.MiningActive)
	assert.Equal(t, "2024-03-02T12:00:00Z", result.ExpiresAt)
	require.NotNil(t, result.HourlyRatio)
	assert.Equal(t, 0.25, *result.HourlyRatio)
	require.NotNil(t, result.TeamCount)
	assert.Equal(t, 4, *result.TeamCount)
	require.NotNil(t, result.CompletedSessions)
	assert.Equal(t, 31, *result.CompletedSessions)
	assert.Empty(t, result.ErrorText)
	assert.NotEmpty(t, result.Raw)
}

func TestProbe_AlreadyRunningErrorIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "You can't start mining at this time"}`))
	}))
	defer srv.Close()

	prober := NewProber(srv.URL, 5*time.Second)
	result, err := prober.Probe(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "You can't start mining at this time", result.ErrorText)
}

func TestProbe_NonJSONErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	prober := NewProber(srv.URL, 5*time.Second)
	_, err := prober.Probe(context.Background(), "tok")
	assert.Error(t, err)
}

func TestProbe_PartialResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance": "12.5", "unknown_field": [1, 2]}`))
	}))
	defer srv.Close()

	prober := NewProber(srv.URL, 5*time.Second)
	result, err := prober.Probe(context.Background(), "tok")
	require.NoError(t, err)

	require.NotNil(t, result.Balance, "string numerics must coerce")
	assert.Equal(t, 12.5, *result.Balance)
	assert.Nil(t, result.MiningActive)
	assert.Empty(t, result.ExpiresAt)
}

func TestProbe_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prober := NewProber(srv.URL, 5*time.Second)
	_, err := prober.Probe(ctx, "tok")
	assert.Error(t, err)
}
