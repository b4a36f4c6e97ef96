package accounts

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pi-account-checker/core/reconcile"
	"pi-account-checker/feature/accounts/models"
)

// LocalStore is the on-device SQLite copy of the account table. It
// implements reconcile.LocalStore.
type LocalStore struct {
	db *gorm.DB
}

// NewLocalStore migrates the account table and returns the store.
func NewLocalStore(db *gorm.DB) (*LocalStore, error) {
	if err := db.AutoMigrate(&models.Account{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local account table: %w", err)
	}
	return &LocalStore{db: db}, nil
}

// GetAll returns every local account as a sync record.
func (s *LocalStore) GetAll(ctx context.Context) ([]reconcile.Record, error) {
	var rows []models.Account
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load local accounts: %w", err)
	}
	return toRecords(rows)
}

// Put writes one record, replacing any existing row for the same phone. The
// record's own clock is preserved.
func (s *LocalStore) Put(ctx context.Context, rec reconcile.Record) error {
	account, err := models.FromRecord(rec)
	if err != nil {
		return err
	}
	return upsert(s.db.WithContext(ctx), account)
}

// List returns every local account as a typed model.
func (s *LocalStore) List(ctx context.Context) ([]models.Account, error) {
	var rows []models.Account
	if err := s.db.WithContext(ctx).Order("phone").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return rows, nil
}

// Get returns one account by phone. gorm.ErrRecordNotFound passes through
// so callers can map it to a 404.
func (s *LocalStore) Get(ctx context.Context, phone string) (models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).First(&account, "phone = ?", phone).Error
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// Save upserts one typed account.
func (s *LocalStore) Save(ctx context.Context, account models.Account) error {
	return upsert(s.db.WithContext(ctx), account)
}

// Touch marks an account's mining flag and bumps its clock, used when the
// resolver demotes a stale active record.
func (s *LocalStore) Touch(ctx context.Context, phone string, active bool, now time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("phone = ?", phone).
		Updates(map[string]any{
			"mining_active": active,
			"updated_at":    now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update mining state for %s: %w", phone, err)
	}
	return nil
}

// RemoteStore is the shared MySQL copy of the account table. It implements
// reconcile.RemoteStore.
type RemoteStore struct {
	db *gorm.DB
}

// NewRemoteStore migrates the account table and returns the store.
func NewRemoteStore(db *gorm.DB) (*RemoteStore, error) {
	if err := db.AutoMigrate(&models.Account{}); err != nil {
		return nil, fmt.Errorf("failed to migrate remote account table: %w", err)
	}
	return &RemoteStore{db: db}, nil
}

// SelectByKeys returns the remote records for the given phones. An empty or
// nil key set selects every remote record, which is how the sync engine
// discovers remote-only accounts.
func (s *RemoteStore) SelectByKeys(ctx context.Context, keys []string) ([]reconcile.Record, error) {
	query := s.db.WithContext(ctx)
	if len(keys) > 0 {
		query = query.Where("phone IN ?", keys)
	}

	var rows []models.Account
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load remote accounts: %w", err)
	}
	return toRecords(rows)
}

// UpsertBatch writes one batch of records in a single statement.
func (s *RemoteStore) UpsertBatch(ctx context.Context, recs []reconcile.Record) error {
	if len(recs) == 0 {
		return nil
	}

	rows := make([]models.Account, 0, len(recs))
	for _, rec := range recs {
		account, err := models.FromRecord(rec)
		if err != nil {
			return err
		}
		rows = append(rows, account)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d remote accounts: %w", len(rows), err)
	}
	return nil
}

func upsert(db *gorm.DB, account models.Account) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		UpdateAll: true,
	}).Create(&account).Error
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.Phone, err)
	}
	return nil
}

func toRecords(rows []models.Account) ([]reconcile.Record, error) {
	recs := make([]reconcile.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
