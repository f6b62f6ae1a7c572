// Package fallback is the local durable cache used when the remote store is
// unreachable: last-known snapshots per collection, a queue of writes waiting
// to be replayed, and completion markers for multi-step operations.
package fallback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Envelope wraps a collection snapshot with freshness metadata.
type Envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int64           `json:"version"`
}

// PendingWrite is one mutation queued while the remote store was down.
type PendingWrite struct {
	ID         int64
	Collection string
	Op         string
	Payload    json.RawMessage
	QueuedAt   time.Time
}

// Store is a sqlite-backed key/value store with one bucket per collection.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// New opens (or creates) the fallback database at path.
func New(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = "farmledger.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create fallback dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fallback db: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			bucket TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pending_writes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			op TEXT NOT NULL,
			payload BLOB NOT NULL,
			queued_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS op_markers (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init fallback schema: %w", err)
		}
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores v as the last-known state of bucket, bumping the
// envelope version.
func (s *Store) SaveSnapshot(ctx context.Context, bucket string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", bucket, err)
	}

	prev, _, err := s.loadEnvelope(ctx, bucket)
	if err != nil {
		return err
	}
	env := Envelope{Data: data, Timestamp: time.Now().UTC(), Version: prev.Version + 1}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope %s: %w", bucket, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots(bucket, payload) VALUES(?, ?)
		ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload
	`, bucket, payload)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", bucket, err)
	}

	s.logger.Debug("snapshot stored", zap.String("bucket", bucket), zap.Int64("version", env.Version))
	return nil
}

// LoadSnapshot decodes the last-known state of bucket into out. The second
// return is false when no snapshot has ever been written.
func (s *Store) LoadSnapshot(ctx context.Context, bucket string, out any) (time.Time, bool, error) {
	env, ok, err := s.loadEnvelope(ctx, bucket)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return time.Time{}, false, fmt.Errorf("decode snapshot %s: %w", bucket, err)
	}
	return env.Timestamp, true, nil
}

func (s *Store) loadEnvelope(ctx context.Context, bucket string) (Envelope, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE bucket = ?`, bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Envelope{}, false, nil
	}
	if err != nil {
		return Envelope{}, false, fmt.Errorf("select snapshot %s: %w", bucket, err)
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, false, fmt.Errorf("decode envelope %s: %w", bucket, err)
	}
	return env, true, nil
}

// QueueWrite records a mutation that could not reach the remote store so the
// scheduler can replay it later.
func (s *Store) QueueWrite(ctx context.Context, collection, op string, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode pending write %s: %w", collection, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_writes(collection, op, payload, queued_at) VALUES(?, ?, ?, ?)
	`, collection, op, payload, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("queue pending write %s: %w", collection, err)
	}
	return nil
}

// PendingWrites returns queued writes in arrival order.
func (s *Store) PendingWrites(ctx context.Context) ([]PendingWrite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection, op, payload, queued_at FROM pending_writes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("select pending writes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PendingWrite
	for rows.Next() {
		var (
			w  PendingWrite
			at string
		)
		if err := rows.Scan(&w.ID, &w.Collection, &w.Op, &w.Payload, &at); err != nil {
			return nil, fmt.Errorf("scan pending write: %w", err)
		}
		if ts, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			w.QueuedAt = ts
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DeletePending removes one replayed write from the queue.
func (s *Store) DeletePending(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_writes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending write %d: %w", id, err)
	}
	return nil
}

// SaveMarker persists which steps of a multi-step operation completed.
func (s *Store) SaveMarker(ctx context.Context, key string, completed []string) error {
	payload, err := json.Marshal(completed)
	if err != nil {
		return fmt.Errorf("encode marker %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO op_markers(key, payload, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, key, payload, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save marker %s: %w", key, err)
	}
	return nil
}

// LoadMarker returns the completed steps recorded under key, if any.
func (s *Store) LoadMarker(ctx context.Context, key string) ([]string, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM op_markers WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select marker %s: %w", key, err)
	}
	var completed []string
	if err := json.Unmarshal(payload, &completed); err != nil {
		return nil, false, fmt.Errorf("decode marker %s: %w", key, err)
	}
	return completed, true, nil
}

// DeleteMarker clears a completed operation's marker.
func (s *Store) DeleteMarker(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM op_markers WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete marker %s: %w", key, err)
	}
	return nil
}
