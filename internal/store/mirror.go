package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/navin3756/shipit/internal/models"
)

// Mirror is the durable local copy of the full project list, plus the ids of
// projects that exist only locally because their remote insert failed.
type Mirror interface {
	Load(ctx context.Context) ([]models.Project, error)
	Save(ctx context.Context, projects []models.Project) error
	LoadPending(ctx context.Context) ([]string, error)
	SavePending(ctx context.Context, ids []string) error
	Close() error
}

const pendingSuffix = ":pending"

const mirrorSchema = `
CREATE TABLE IF NOT EXISTS mirror_slots (
	slot       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`

// SQLiteMirror keeps the project list as one JSON document in a named slot.
type SQLiteMirror struct {
	db   *sql.DB
	slot string
}

// OpenSQLiteMirror opens (or creates) the mirror database at path.
func OpenSQLiteMirror(path, slot string) (*SQLiteMirror, error) {
	if slot == "" {
		return nil, errors.New("mirror slot name is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create mirror dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open mirror db: %w", err)
	}
	if _, err := db.Exec(mirrorSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate mirror db: %w", err)
	}
	return &SQLiteMirror{db: db, slot: slot}, nil
}

// Load returns the stored list. An empty slot yields an empty list.
func (m *SQLiteMirror) Load(ctx context.Context) ([]models.Project, error) {
	out := []models.Project{}
	if err := m.read(ctx, m.slot, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Project{}
	}
	return out, nil
}

// Save replaces the slot with the given list, preserving its order.
func (m *SQLiteMirror) Save(ctx context.Context, projects []models.Project) error {
	if projects == nil {
		projects = []models.Project{}
	}
	return m.write(ctx, m.slot, projects)
}

// LoadPending returns the ids of projects not yet stored remotely.
func (m *SQLiteMirror) LoadPending(ctx context.Context) ([]string, error) {
	var ids []string
	if err := m.read(ctx, m.slot+pendingSuffix, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SavePending replaces the pending id set.
func (m *SQLiteMirror) SavePending(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return m.write(ctx, m.slot+pendingSuffix, ids)
}

// read decodes slot into dst. A missing slot leaves dst untouched.
func (m *SQLiteMirror) read(ctx context.Context, slot string, dst any) error {
	var payload string
	err := m.db.QueryRowContext(ctx, `SELECT payload FROM mirror_slots WHERE slot = ?`, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read mirror slot %s: %w", slot, err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decode mirror slot %s: %w", slot, err)
	}
	return nil
}

func (m *SQLiteMirror) write(ctx context.Context, slot string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode mirror slot %s: %w", slot, err)
	}
	_, err = m.db.ExecContext(ctx,
		`INSERT INTO mirror_slots (slot, payload, updated_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		slot, string(payload),
	)
	if err != nil {
		return fmt.Errorf("write mirror slot %s: %w", slot, err)
	}
	return nil
}

// Close closes the database connection.
func (m *SQLiteMirror) Close() error {
	return m.db.Close()
}

// Ping checks that the mirror database is reachable.
func (m *SQLiteMirror) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}
