// Package store is the preset library: named preset documents persisted in
// SQLite. It backs the demo's preset browser and never runs on the audio
// path.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a named preset does not exist.
var ErrNotFound = errors.New("store: preset not found")

// DB wraps the SQLite database connection.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// PresetInfo summarises one stored preset.
type PresetInfo struct {
	Name      string
	UpdatedAt time.Time
}

// Open opens (or creates) the preset library under dataDir and runs
// migrations.
func Open(dataDir string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dbPath := filepath.Join(dataDir, "presets.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	s := &DB{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS presets (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL UNIQUE,
			payload    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// Save upserts a named preset document.
func (d *DB) Save(name string, payload []byte) error {
	if name == "" {
		return errors.New("store: preset name required")
	}
	_, err := d.db.Exec(`
		INSERT INTO presets (name, payload) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, name, string(payload))
	if err != nil {
		return fmt.Errorf("store: save %q: %w", name, err)
	}
	d.logger.Debug("preset saved", "name", name, "bytes", len(payload))
	return nil
}

// Load returns the payload of a named preset.
func (d *DB) Load(name string) ([]byte, error) {
	var payload string
	err := d.db.QueryRow(`SELECT payload FROM presets WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %q: %w", name, err)
	}
	return []byte(payload), nil
}

// List returns all stored presets, most recently updated first.
func (d *DB) List() ([]PresetInfo, error) {
	rows, err := d.db.Query(`SELECT name, updated_at FROM presets ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []PresetInfo
	for rows.Next() {
		var info PresetInfo
		if err := rows.Scan(&info.Name, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a named preset.
func (d *DB) Delete(name string) error {
	res, err := d.db.Exec(`DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
