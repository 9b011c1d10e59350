package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Collection is the fixed collection the gallery reads
const Collection = "media"

const schema = `
CREATE TABLE IF NOT EXISTS media_records (
	key         TEXT PRIMARY KEY,
	collection  TEXT NOT NULL DEFAULT 'media',
	url         TEXT NOT NULL,
	file_id     TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL,
	alt         TEXT NOT NULL DEFAULT '',
	sort_order  BIGINT NOT NULL DEFAULT 0,
	uid         TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_media_records_collection ON media_records (collection, key);
`

type row struct {
	Key string `db:"key"`
	Record
}

// PostgresStore keeps records in PostgreSQL and fans changes out through a Feed.
type PostgresStore struct {
	db         *sqlx.DB
	feed       *Feed
	collection string
	subs       listeners
	newKey     func() string
}

// NewPostgresStore creates a store over db. feed may be nil.
func NewPostgresStore(db *sqlx.DB, feed *Feed) *PostgresStore {
	return &PostgresStore{
		db:         db,
		feed:       feed,
		collection: Collection,
		newKey:     NewKey,
	}
}

// EnsureSchema creates the records table if needed
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create media schema: %w", err)
	}
	return nil
}

// Run reloads and redistributes the collection whenever another instance changes
// it. Blocks until ctx is cancelled.
func (s *PostgresStore) Run(ctx context.Context) {
	s.feed.Listen(ctx, func() { s.dispatch(ctx) })
}

func (s *PostgresStore) Push(ctx context.Context, rec Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	key := s.newKey()
	query := `
		INSERT INTO media_records (key, collection, url, file_id, type, alt, sort_order, uid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.db.ExecContext(ctx, query,
		key, s.collection, rec.URL, rec.FileID, rec.Type, rec.Alt, rec.Order, rec.UID,
	); err != nil {
		return "", fmt.Errorf("insert media record: %w", err)
	}

	s.changed(ctx)
	return key, nil
}

func (s *PostgresStore) Update(ctx context.Context, key string, patch Patch) error {
	if patch.Empty() {
		return ErrEmptyPatch
	}

	query := `UPDATE media_records SET alt = $1, updated_at = $2 WHERE key = $3 AND collection = $4`
	res, err := s.db.ExecContext(ctx, query, *patch.Alt, time.Now(), key, s.collection)
	if err != nil {
		return fmt.Errorf("update media record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	s.changed(ctx)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Record, error) {
	query := `
		SELECT key, url, file_id, type, alt, sort_order, uid
		FROM media_records
		WHERE key = $1 AND collection = $2
	`
	var r row
	if err := s.db.GetContext(ctx, &r, query, key, s.collection); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get media record: %w", err)
	}
	return r.Record, nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	query := `DELETE FROM media_records WHERE key = $1 AND collection = $2`
	res, err := s.db.ExecContext(ctx, query, key, s.collection)
	if err != nil {
		return fmt.Errorf("delete media record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	s.changed(ctx)
	return nil
}

func (s *PostgresStore) Snapshot(ctx context.Context) (Snapshot, error) {
	query := `
		SELECT key, url, file_id, type, alt, sort_order, uid
		FROM media_records
		WHERE collection = $1
		ORDER BY key
	`
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, s.collection); err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}

	snap := make(Snapshot, 0, len(rows))
	for _, r := range rows {
		snap = append(snap, Entry{Key: r.Key, Record: r.Record})
	}
	return snap, nil
}

func (s *PostgresStore) Subscribe(ctx context.Context, fn Listener) (func(), error) {
	s.subs.sendMu.Lock()
	defer s.subs.sendMu.Unlock()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	unsubscribe := s.subs.add(fn)
	fn(snap)
	return unsubscribe, nil
}

func (s *PostgresStore) changed(ctx context.Context) {
	if err := s.feed.Publish(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to publish media change")
	}
	s.dispatch(ctx)
}

func (s *PostgresStore) dispatch(ctx context.Context) {
	if s.subs.count() == 0 {
		return
	}
	s.subs.dispatch(func() (Snapshot, bool) {
		// Detached so a cancelled request still updates the other sessions
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		snap, err := s.Snapshot(loadCtx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to reload media records")
			return nil, false
		}
		return snap, true
	})
}
