// Package runindex records lattice runs in a SQLite database so sweeps
// can be compared after the fact.
package runindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Part is the measured output of one lattice part.
type Part struct {
	Name      string  `json:"name"`
	Voxels    int     `json:"voxels"`
	VolumeMM3 float64 `json:"volume_mm3"`
	MassG     float64 `json:"mass_g"`
	MeshPath  string  `json:"mesh_path,omitempty"`
}

// Run is one recorded pipeline execution.
type Run struct {
	ID         string
	Label      string
	Input      string
	BaseName   string
	ConfigJSON string
	Parts      []Part
	Elapsed    time.Duration
	RecordedAt time.Time
}

// Index is an open run database.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			input TEXT NOT NULL,
			base_name TEXT NOT NULL,
			config_json TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS parts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			voxels INTEGER NOT NULL,
			volume_mm3 REAL NOT NULL,
			mass_g REAL NOT NULL,
			mesh_path TEXT NOT NULL,
			PRIMARY KEY (run_id, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_label ON runs(label, recorded_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record stores r and returns its ID. A fresh ID is assigned when r.ID is
// empty. cfg is stored as JSON.
func (x *Index) Record(ctx context.Context, r Run, cfg any) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	if r.ConfigJSON == "" && cfg != nil {
		b, err := json.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("encode config: %w", err)
		}
		r.ConfigJSON = string(b)
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, label, input, base_name, config_json, elapsed_ms, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Label, r.Input, r.BaseName, r.ConfigJSON, r.Elapsed.Milliseconds(), r.RecordedAt.Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	for _, p := range r.Parts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO parts (run_id, name, voxels, volume_mm3, mass_g, mesh_path) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, p.Name, p.Voxels, p.VolumeMM3, p.MassG, p.MeshPath,
		); err != nil {
			return "", fmt.Errorf("insert part %s: %w", p.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return r.ID, nil
}

// Runs returns the recorded runs, oldest first. An empty label matches
// every run.
func (x *Index) Runs(ctx context.Context, label string) ([]Run, error) {
	q := `SELECT id, label, input, base_name, config_json, elapsed_ms, recorded_at FROM runs`
	var args []any
	if label != "" {
		q += ` WHERE label = ?`
		args = append(args, label)
	}
	q += ` ORDER BY recorded_at, id`
	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			elapsed int64
			at      string
		)
		if err := rows.Scan(&r.ID, &r.Label, &r.Input, &r.BaseName, &r.ConfigJSON, &elapsed, &at); err != nil {
			return nil, err
		}
		r.Elapsed = time.Duration(elapsed) * time.Millisecond
		if r.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].Parts, err = x.parts(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (x *Index) parts(ctx context.Context, runID string) ([]Part, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT name, voxels, volume_mm3, mass_g, mesh_path FROM parts WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var parts []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.Name, &p.Voxels, &p.VolumeMM3, &p.MassG, &p.MeshPath); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}
