// Package sqlite persists scene snapshots to a single SQLite table as JSON
// buckets, giving the editor durable sessions without a schema migration
// treadmill.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"scenecore/internal/core"
)

// Store wraps a scene store with snapshot persistence. Persist writes the
// full state after every successful command batch.
type Store struct {
	scene *core.SceneStore
	db    *sql.DB
	mu    sync.Mutex
	path  string
}

// NewStore opens (or creates) the database at path and hydrates the scene
// from any existing snapshot.
func NewStore(path string, scene *core.SceneStore) (*Store, error) {
	if path == "" {
		path = "scenecore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS scene_state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create scene_state table: %w", err)
	}
	s := &Store{scene: scene, db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var buckets = []string{"items", "elements", "floors", "plates", "graveyard", "selection", "floor_order"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM scene_state`)
	if err != nil {
		return fmt.Errorf("select scene_state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := map[string][]byte{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate scene_state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}
	snap, err := decodeSnapshot(payloads)
	if err != nil {
		return err
	}
	s.scene.Restore(snap)
	return nil
}

func decodeSnapshot(payloads map[string][]byte) (core.Snapshot, error) {
	var snap core.Snapshot
	targets := map[string]any{
		"items":       &snap.Items,
		"elements":    &snap.Elements,
		"floors":      &snap.Floors,
		"plates":      &snap.Plates,
		"graveyard":   &snap.Graveyard,
		"selection":   &snap.Selection,
		"floor_order": &snap.FloorOrder,
	}
	for bucket, payload := range payloads {
		target, ok := targets[bucket]
		if !ok {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return core.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	return snap, nil
}

func encodeSnapshot(snap core.Snapshot) (map[string][]byte, error) {
	sources := map[string]any{
		"items":       snap.Items,
		"elements":    snap.Elements,
		"floors":      snap.Floors,
		"plates":      snap.Plates,
		"graveyard":   snap.Graveyard,
		"selection":   snap.Selection,
		"floor_order": snap.FloorOrder,
	}
	out := make(map[string][]byte, len(sources))
	for bucket, src := range sources {
		data, err := json.Marshal(src)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// Persist snapshots the scene into the database. Call after each successful
// command, undo, or redo.
func (s *Store) Persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payloads, err := encodeSnapshot(s.scene.Snapshot())
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scene_state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
			bucket, payloads[bucket]); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// Scene returns the wrapped scene store.
func (s *Store) Scene() *core.SceneStore { return s.scene }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
