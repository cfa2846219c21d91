// Package store defines the persistence interfaces for the small set of
// tables the backend owns in Supabase: drop codes, admin-popup
// preferences, and the analytics cache. Every consumer of other Supabase
// tables is external and opaque to this service.
package store

import (
	"context"
	"time"

	"github.com/faucetdrops/backend/pkg/dropcode"
)

// DropCodeStore persists at most one code record per faucet.
// Implementations must treat the checksummed faucet address as the key.
type DropCodeStore interface {
	// Upsert replaces any existing record for the faucet.
	Upsert(ctx context.Context, record dropcode.Record) error
	// Get returns the faucet's record, or nil when none exists.
	Get(ctx context.Context, faucetAddress string) (*dropcode.Record, error)
	// SaveTasks stores the opaque quest/task payload attached to the
	// faucet's claim parameters.
	SaveTasks(ctx context.Context, faucetAddress string, tasks []byte) error
}

// Preference is a per-(user, faucet) admin-popup preference row.
type Preference struct {
	UserAddress        string    `json:"userAddress"`
	FaucetAddress      string    `json:"faucetAddress"`
	DontShowAdminPopup bool      `json:"dontShowAdminPopup"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// PreferenceStore persists admin-popup preferences keyed by
// (user, faucet).
type PreferenceStore interface {
	// Set upserts the preference for the pair.
	Set(ctx context.Context, userAddress, faucetAddress string, dontShow bool) error
	// Get returns the stored flag; a missing row reads as false.
	Get(ctx context.Context, userAddress, faucetAddress string) (bool, error)
	// ListByUser returns every preference row for the user.
	ListByUser(ctx context.Context, userAddress string) ([]Preference, error)
}

// CacheStore persists analytics documents under a small fixed key set.
// Writes upsert and bump the updated_at timestamp.
type CacheStore interface {
	Put(ctx context.Context, key string, doc []byte) error
	// Get returns the document and its updated_at; a missing key returns
	// (nil, zero time, nil).
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
}
