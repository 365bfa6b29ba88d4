// Package postgres provides a Postgres-backed snapshot store with the same
// bucket layout as the sqlite store, for deployments that share scenes
// between editor hosts.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"scenecore/internal/core"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/scenecore?sslmode=disable"
)

// Store persists scene snapshots to Postgres.
type Store struct {
	scene *core.SceneStore
	db    *sql.DB
	mu    sync.Mutex
}

var buckets = []string{"items", "elements", "floors", "plates", "graveyard", "selection", "floor_order"}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the scene
// from any existing snapshot.
func NewStore(ctx context.Context, dsn string, scene *core.SceneStore) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS scene_state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure scene_state table: %w", err)
	}
	s := &Store{scene: scene, db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM scene_state`)
	if err != nil {
		return fmt.Errorf("select scene_state: %w", err)
	}
	defer func() { _ = rows.Close() }()
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
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		target, ok := targets[bucket]
		if !ok {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate scene_state: %w", err)
	}
	if found {
		s.scene.Restore(snap)
	}
	return nil
}

// Persist snapshots the scene into Postgres.
func (s *Store) Persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.scene.Snapshot()
	sources := map[string]any{
		"items":       snap.Items,
		"elements":    snap.Elements,
		"floors":      snap.Floors,
		"plates":      snap.Plates,
		"graveyard":   snap.Graveyard,
		"selection":   snap.Selection,
		"floor_order": snap.FloorOrder,
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
		data, err := json.Marshal(sources[bucket])
		if err != nil {
			retErr = fmt.Errorf("encode %s: %w", bucket, err)
			return retErr
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scene_state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
			bucket, data); err != nil {
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

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
