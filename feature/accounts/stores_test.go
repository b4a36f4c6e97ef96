package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"pi-account-checker/core/localstore"
	"pi-account-checker/core/reconcile"
	"pi-account-checker/feature/accounts/models"
)

func setupLocalStore(t *testing.T) *LocalStore {
	db, err := localstore.Open(localstore.Config{Path: ":memory:"})
	require.NoError(t, err)

	store, err := NewLocalStore(db)
	require.NoError(t, err)
	return store
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func testAccount(phone string, updatedAt time.Time) models.Account {
	balance := 10.0
	active := true
	return models.Account{
		Phone:        phone,
		Username:     "pioneer",
		Balance:      &balance,
		MiningActive: &active,
		UpdatedAt:    updatedAt,
	}
}

func TestLocalStore_PutAndGetAll(t *testing.T) {
	store := setupLocalStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rec, err := testAccount("+15550001111", ts).Record()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, rec))

	recs, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "+15550001111", recs[0].Key)
	assert.True(t, ts.Equal(recs[0].UpdatedAt))
}

func TestLocalStore_PutPreservesClock(t *testing.T) {
	store := setupLocalStore(t)
	ctx := context.Background()
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	rec, err := testAccount("+15550001111", ts).Record()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "+15550001111")
	require.NoError(t, err)
	assert.True(t, ts.Equal(got.UpdatedAt), "upsert must not touch the conflict clock")
}

func TestLocalStore_PutOverwrites(t *testing.T) {
	store := setupLocalStore(t)
	ctx := context.Background()

	older := testAccount("+15550001111", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	newer := testAccount("+15550001111", time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC))
	newer.Username = "renamed"

	for _, a := range []models.Account{older, newer} {
		rec, err := a.Record()
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, rec))
	}

	got, err := store.Get(ctx, "+15550001111")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)

	rows, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLocalStore_GetNotFound(t *testing.T) {
	store := setupLocalStore(t)

	_, err := store.Get(context.Background(), "+15559999999")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLocalStore_Touch(t *testing.T) {
	store := setupLocalStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testAccount("+15550001111", ts)))

	demotedAt := ts.Add(2 * time.Hour)
	require.NoError(t, store.Touch(ctx, "+15550001111", false, demotedAt))

	got, err := store.Get(ctx, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, got.MiningActive)
	assert.False(t, *got.MiningActive)
	assert.True(t, demotedAt.Equal(got.UpdatedAt))
}

func TestRemoteStore_SelectByKeys_All(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &RemoteStore{db: db}

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"phone", "username", "updated_at"}).
		AddRow("+15550001111", "pioneer", ts).
		AddRow("+15550002222", "settler", ts)
	mock.ExpectQuery("SELECT \\* FROM `pi_accounts`").WillReturnRows(rows)

	recs, err := store.SelectByKeys(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "+15550001111", recs[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_SelectByKeys_EmptySliceSelectsAll(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &RemoteStore{db: db}

	rows := sqlmock.NewRows([]string{"phone", "updated_at"}).
		AddRow("+15550001111", time.Now()).
		AddRow("+15550002222", time.Now())
	// No WHERE clause: an empty key set must not become IN ().
	mock.ExpectQuery("SELECT \\* FROM `pi_accounts`$").WillReturnRows(rows)

	recs, err := store.SelectByKeys(context.Background(), []string{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_SelectByKeys_Filtered(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &RemoteStore{db: db}

	rows := sqlmock.NewRows([]string{"phone", "updated_at"}).
		AddRow("+15550001111", time.Now())
	mock.ExpectQuery("SELECT \\* FROM `pi_accounts` WHERE phone IN").
		WithArgs("+15550001111").
		WillReturnRows(rows)

	recs, err := store.SelectByKeys(context.Background(), []string{"+15550001111"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_UpsertBatch(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &RemoteStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `pi_accounts`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var recs []reconcile.Record
	for _, phone := range []string{"+15550001111", "+15550002222"} {
		rec, err := testAccount(phone, ts).Record()
		require.NoError(t, err)
		recs = append(recs, rec)
	}

	require.NoError(t, store.UpsertBatch(context.Background(), recs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_UpsertBatch_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &RemoteStore{db: db}

	require.NoError(t, store.UpsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
