// Package postgres implements the stores over the Supabase Postgres
// database, reached through the session pooler with pgx.
package postgres

import (
	"context"
	"embed"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres migration driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"

	"github.com/faucetdrops/backend/pkg/dropcode"
	"github.com/faucetdrops/backend/pkg/store"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DB wraps the connection pool shared by the concrete stores.
type DB struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New connects to the database and runs pending migrations.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	if err := executeMigration(databaseURL); err != nil {
		return nil, errors.Wrap(err, "running migrations")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "creating connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pinging database")
	}

	return &DB{
		pool: pool,
		log:  logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close releases the connection pool.
func (d *DB) Close() {
	d.log.Debug().Msg("closing connection pool")
	d.pool.Close()
}

func executeMigration(databaseURL string) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "creating source driver")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return errors.Wrap(err, "creating migration")
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "running migration up")
	}
	return nil
}

// DropCodeStore is the Postgres-backed code store.
type DropCodeStore struct {
	db *DB
}

// NewDropCodeStore creates a code store over the shared pool.
func NewDropCodeStore(db *DB) store.DropCodeStore {
	return &DropCodeStore{db: db}
}

// Upsert replaces any existing record for the faucet.
func (s *DropCodeStore) Upsert(ctx context.Context, record dropcode.Record) error {
	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO drop_codes (faucet_address, code, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (faucet_address) DO UPDATE
		SET code = EXCLUDED.code,
		    start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    created_at = now()`,
		record.FaucetAddress, record.Code, record.StartTime, record.EndTime)
	if err != nil {
		return errors.Wrap(err, "upserting drop code")
	}
	return nil
}

// Get returns the faucet's record, or nil when none exists.
func (s *DropCodeStore) Get(ctx context.Context, faucetAddress string) (*dropcode.Record, error) {
	var record dropcode.Record
	err := s.db.pool.QueryRow(ctx, `
		SELECT faucet_address, code, start_time, end_time, created_at
		FROM drop_codes WHERE faucet_address = $1`, faucetAddress).
		Scan(&record.FaucetAddress, &record.Code, &record.StartTime, &record.EndTime, &record.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying drop code")
	}
	return &record, nil
}

// SaveTasks stores the opaque tasks payload on the faucet's row.
func (s *DropCodeStore) SaveTasks(ctx context.Context, faucetAddress string, tasks []byte) error {
	tag, err := s.db.pool.Exec(ctx,
		`UPDATE drop_codes SET tasks = $2 WHERE faucet_address = $1`, faucetAddress, tasks)
	if err != nil {
		return errors.Wrap(err, "saving tasks")
	}
	if tag.RowsAffected() == 0 {
		return errors.New("no drop code row for faucet")
	}
	return nil
}

// PreferenceStore is the Postgres-backed admin-popup preference store.
type PreferenceStore struct {
	db *DB
}

// NewPreferenceStore creates a preference store over the shared pool.
func NewPreferenceStore(db *DB) store.PreferenceStore {
	return &PreferenceStore{db: db}
}

// Set upserts the preference for the (user, faucet) pair.
func (s *PreferenceStore) Set(ctx context.Context, userAddress, faucetAddress string, dontShow bool) error {
	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO admin_popup_preferences (user_address, faucet_address, dont_show_admin_popup, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_address, faucet_address) DO UPDATE
		SET dont_show_admin_popup = EXCLUDED.dont_show_admin_popup,
		    updated_at = now()`,
		userAddress, faucetAddress, dontShow)
	if err != nil {
		return errors.Wrap(err, "upserting preference")
	}
	return nil
}

// Get returns the stored flag; a missing row reads as false.
func (s *PreferenceStore) Get(ctx context.Context, userAddress, faucetAddress string) (bool, error) {
	var dontShow bool
	err := s.db.pool.QueryRow(ctx, `
		SELECT dont_show_admin_popup FROM admin_popup_preferences
		WHERE user_address = $1 AND faucet_address = $2`, userAddress, faucetAddress).
		Scan(&dontShow)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "querying preference")
	}
	return dontShow, nil
}

// ListByUser returns every preference row for the user.
func (s *PreferenceStore) ListByUser(ctx context.Context, userAddress string) ([]store.Preference, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT user_address, faucet_address, dont_show_admin_popup, updated_at
		FROM admin_popup_preferences WHERE user_address = $1`, userAddress)
	if err != nil {
		return nil, errors.Wrap(err, "querying preferences")
	}
	defer rows.Close()

	prefs := make([]store.Preference, 0)
	for rows.Next() {
		var p store.Preference
		if err := rows.Scan(&p.UserAddress, &p.FaucetAddress, &p.DontShowAdminPopup, &p.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning preference")
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// CacheStore is the Postgres-backed analytics cache.
type CacheStore struct {
	db *DB
}

// NewCacheStore creates a cache store over the shared pool.
func NewCacheStore(db *DB) store.CacheStore {
	return &CacheStore{db: db}
}

// Put upserts the document under key and bumps updated_at.
func (s *CacheStore) Put(ctx context.Context, key string, doc []byte) error {
	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO analytics_cache (cache_key, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (cache_key) DO UPDATE
		SET doc = EXCLUDED.doc,
		    updated_at = now()`, key, doc)
	if err != nil {
		return errors.Wrap(err, "upserting cache entry")
	}
	return nil
}

// Get returns the document and its updated_at; a missing key returns nils.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	var doc []byte
	var updatedAt time.Time
	err := s.db.pool.QueryRow(ctx,
		`SELECT doc, updated_at FROM analytics_cache WHERE cache_key = $1`, key).
		Scan(&doc, &updatedAt)
	if err == pgx.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, "querying cache entry")
	}
	return doc, updatedAt, nil
}
