package models

import (
	"encoding/json"
	"fmt"
	"time"

	"pi-account-checker/core/reconcile"
	"pi-account-checker/core/session"
)

// Account is one tracked phone-tied account. The same model backs both the
// on-device SQLite table and the shared remote MySQL table; the two copies
// are folded together by the reconciler using UpdatedAt as the clock.
//
// Timestamp fields coming from the third-party service are stored as raw
// strings: the service has emitted several formats over time and the
// session resolver owns the defensive parsing.
type Account struct {
	// Phone is the stable unique identifier.
	Phone string `gorm:"primaryKey;size:32" json:"phone"`

	// Username is the display name, when known.
	Username string `gorm:"size:64" json:"username,omitempty"`

	// AccessToken authenticates probe calls for this account.
	AccessToken string `gorm:"size:512" json:"access_token,omitempty"`

	// Balance is the last known balance.
	Balance *float64 `json:"balance,omitempty"`

	// MiningActive is the explicit is-mining flag, when the record has
	// one. The resolver may demote it.
	MiningActive *bool `json:"mining_active,omitempty"`

	// ValidUntil and ExpiresAt are raw session expiry timestamps.
	ValidUntil string `gorm:"size:64" json:"valid_until,omitempty"`
	ExpiresAt  string `gorm:"size:64" json:"expires_at,omitempty"`

	// LastMinedAt is the raw timestamp of the most recent mining activity.
	LastMinedAt string `gorm:"size:64" json:"last_mined_at,omitempty"`

	// HourlyRatio, TeamCount, MiningCount and CompletedSessions are the
	// authoritative numeric fields. Nil means unknown.
	HourlyRatio       *float64 `json:"hourly_ratio,omitempty"`
	TeamCount         *int     `json:"team_count,omitempty"`
	MiningCount       *int     `json:"mining_count,omitempty"`
	CompletedSessions *int     `json:"completed_sessions,omitempty"`

	// LastError is the error text of the most recent probe attempt.
	LastError string `gorm:"type:text" json:"last_error,omitempty"`

	// Response is the raw JSON blob of the most recent probe response.
	Response string `gorm:"type:text" json:"response,omitempty"`

	// UpdatedAt is the conflict-resolution clock. GORM's automatic
	// touch-on-save is disabled: only real mutations may bump it, and
	// the reconciler must preserve the incoming record's timestamp.
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName keeps both stores on the same table name.
func (Account) TableName() string {
	return "pi_accounts"
}

// Record converts the account into the sync engine's representation. The
// payload is the JSON image of the account minus the structurally
// meaningful key and clock.
func (a Account) Record() (reconcile.Record, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return reconcile.Record{}, fmt.Errorf("failed to encode account %s: %w", a.Phone, err)
	}

	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return reconcile.Record{}, fmt.Errorf("failed to build payload for %s: %w", a.Phone, err)
	}
	delete(payload, "phone")
	delete(payload, "updated_at")

	return reconcile.Record{
		Key:       a.Phone,
		UpdatedAt: a.UpdatedAt,
		Payload:   payload,
	}, nil
}

// FromRecord rebuilds an account from a sync engine record.
func FromRecord(rec reconcile.Record) (Account, error) {
	raw, err := json.Marshal(rec.Payload)
	if err != nil {
		return Account{}, fmt.Errorf("failed to encode payload for %s: %w", rec.Key, err)
	}

	var a Account
	if err := json.Unmarshal(raw, &a); err != nil {
		return Account{}, fmt.Errorf("failed to decode payload for %s: %w", rec.Key, err)
	}
	a.Phone = rec.Key
	a.UpdatedAt = rec.UpdatedAt
	return a, nil
}

// SessionInput assembles the resolver's input from the stored record. A
// malformed response blob degrades to absent rather than failing.
func (a Account) SessionInput() session.Input {
	var response map[string]any
	if a.Response != "" {
		_ = json.Unmarshal([]byte(a.Response), &response)
	}

	return session.Input{
		ActiveFlag:        a.MiningActive,
		ValidUntil:        a.ValidUntil,
		ExpiresAt:         a.ExpiresAt,
		LastActivityAt:    a.LastMinedAt,
		LastError:         a.LastError,
		Response:          response,
		HourlyRatio:       a.HourlyRatio,
		TeamCount:         a.TeamCount,
		MiningCount:       a.MiningCount,
		CompletedSessions: a.CompletedSessions,
	}
}

// WasActive reports the previously persisted active state, feeding the
// resolver's demotion signal.
func (a Account) WasActive() bool {
	return a.MiningActive != nil && *a.MiningActive
}

// AccountStatus pairs a stored account with its freshly resolved session
// status for the dashboard.
type AccountStatus struct {
	Account Account        `json:"account"`
	Status  session.Status `json:"status"`
}
