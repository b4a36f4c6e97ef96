package mining

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pi-account-checker/core/archive"
	"pi-account-checker/core/archive/mocks"
	"pi-account-checker/core/localstore"
	"pi-account-checker/core/session"
	"pi-account-checker/feature/accounts"
	"pi-account-checker/feature/accounts/models"
)

func setupStore(t *testing.T) *accounts.LocalStore {
	db, err := localstore.Open(localstore.Config{Path: ":memory:"})
	require.NoError(t, err)

	store, err := accounts.NewLocalStore(db)
	require.NoError(t, err)
	return store
}

func seedAccount(t *testing.T, store *accounts.LocalStore, phone, token string) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), models.Account{
		Phone:       phone,
		AccessToken: token,
		UpdatedAt:   time.Now().UTC().Add(-time.Hour),
	}))
}

func TestProbeAndMerge_UpdatesRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"balance": 20.0,
			"mining_active": true,
			"expires_at": "2024-03-02T12:00:00Z"
		}`))
	}))
	defer srv.Close()

	store := setupStore(t)
	seedAccount(t, store, "+15550001111", "tok")

	svc := NewService(store, NewProber(srv.URL, 5*time.Second), nil, session.DefaultConfig(), zap.NewNop())

	before := time.Now().UTC()
	status, err := svc.ProbeAndMerge(context.Background(), "+15550001111")
	require.NoError(t, err)

	require.NotNil(t, status.Account.Balance)
	assert.Equal(t, 20.0, *status.Account.Balance)
	assert.Equal(t, "2024-03-02T12:00:00Z", status.Account.ExpiresAt)
	assert.NotEmpty(t, status.Account.Response)

	got, err := store.Get(context.Background(), "+15550001111")
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.Before(before), "observation must bump the clock")
}

func TestProbeAndMerge_ArchivesRawResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance": 1}`))
	}))
	defer srv.Close()

	client := &mocks.Client{}
	client.On("PutObject", mock.Anything, "probe-archive",
		mock.MatchedBy(func(key string) bool {
			return len(key) > len("probes/+15550001111/") && key[:len("probes/+15550001111/")] == "probes/+15550001111/"
		}),
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	store := setupStore(t)
	seedAccount(t, store, "+15550001111", "tok")

	archiver := archive.New(client, "probe-archive", zap.NewNop())
	svc := NewService(store, NewProber(srv.URL, 5*time.Second), archiver, session.DefaultConfig(), zap.NewNop())

	_, err := svc.ProbeAndMerge(context.Background(), "+15550001111")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestProbeAndMerge_UnknownPhone(t *testing.T) {
	store := setupStore(t)
	svc := NewService(store, NewProber("http://127.0.0.1:0", time.Second), nil, session.DefaultConfig(), zap.NewNop())

	_, err := svc.ProbeAndMerge(context.Background(), "+15559999999")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProbeAndMerge_MissingToken(t *testing.T) {
	store := setupStore(t)
	seedAccount(t, store, "+15550001111", "")

	svc := NewService(store, NewProber("http://127.0.0.1:0", time.Second), nil, session.DefaultConfig(), zap.NewNop())

	_, err := svc.ProbeAndMerge(context.Background(), "+15550001111")
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestProbeAndMerge_TransportFailureIsRecorded(t *testing.T) {
	store := setupStore(t)
	seedAccount(t, store, "+15550001111", "tok")

	svc := NewService(store, NewProber("http://127.0.0.1:1", time.Second), nil, session.DefaultConfig(), zap.NewNop())

	_, err := svc.ProbeAndMerge(context.Background(), "+15550001111")
	require.Error(t, err)

	got, storeErr := store.Get(context.Background(), "+15550001111")
	require.NoError(t, storeErr)
	assert.NotEmpty(t, got.LastError)
}

func TestProbeAndMerge_CollapsesConcurrentProbes(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance": 1}`))
	}))
	defer srv.Close()

	store := setupStore(t)
	seedAccount(t, store, "+15550001111", "tok")

	svc := NewService(store, NewProber(srv.URL, 5*time.Second), nil, session.DefaultConfig(), zap.NewNop())

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ProbeAndMerge(context.Background(), "+15550001111")
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)
	// Give the remaining callers time to join the in-flight call.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent probes must share one upstream call")
}

func TestProbeAll_SkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance": 1}`))
	}))
	defer srv.Close()

	store := setupStore(t)
	seedAccount(t, store, "+15550001111", "tok")
	seedAccount(t, store, "+15550002222", "") // no token, probe fails

	svc := NewService(store, NewProber(srv.URL, 5*time.Second), nil, session.DefaultConfig(), zap.NewNop())

	probed, err := svc.ProbeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, probed)
}

func TestMerge_AbsentFieldsLeaveStoredValues(t *testing.T) {
	balance := 5.0
	account := models.Account{
		Phone:    "+15550001111",
		Username: "pioneer",
		Balance:  &balance,
	}

	now := time.Now()
	merge(&account, &ProbeResult{Raw: []byte(`{}`)}, now)

	assert.Equal(t, "pioneer", account.Username)
	require.NotNil(t, account.Balance)
	assert.Equal(t, 5.0, *account.Balance)
	assert.True(t, now.UTC().Equal(account.UpdatedAt))
}

func TestMerge_ErrorTextReplacesStale(t *testing.T) {
	account := models.Account{LastError: "old failure"}

	merge(&account, &ProbeResult{Raw: []byte(`{}`)}, time.Now())
	assert.Empty(t, account.LastError, "a clean probe clears the stored error")
}
