// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps point-in-time snapshots of fetched reports and host
// detections in SQLite. A snapshot is written only when the user asks for
// one; nothing here is consulted before an API call.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// Snapshot kinds.
const (
	KindReports = "reports"
	KindHosts   = "hosts"
)

// ErrNoSnapshot is returned when no snapshot of the requested kind exists.
var ErrNoSnapshot = errors.New("no snapshot")

// Store manages the snapshot database.
type Store struct {
	db   *sql.DB
	path string
}

// Snapshot describes one saved batch of records.
type Snapshot struct {
	ID      int64     `json:"id" yaml:"id"`
	Kind    string    `json:"kind" yaml:"kind"`
	TakenAt time.Time `json:"taken_at" yaml:"taken_at"`
	Records int       `json:"records" yaml:"records"`
}

// Open opens or creates the snapshot database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			taken_at TEXT NOT NULL,
			records INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			id INTEGER NOT NULL,
			type TEXT NOT NULL,
			state TEXT,
			record TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS hosts (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			id INTEGER NOT NULL,
			ip TEXT,
			record TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS detections (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			host_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			qid INTEGER NOT NULL,
			severity INTEGER NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			port INTEGER,
			results TEXT,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_snapshot ON detections(snapshot_id, severity)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_qid ON detections(qid)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// newSnapshot inserts the snapshot row inside tx.
func newSnapshot(ctx context.Context, tx *sql.Tx, kind string, records int) (Snapshot, error) {
	snap := Snapshot{Kind: kind, TakenAt: time.Now().UTC().Truncate(time.Second), Records: records}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (kind, taken_at, records) VALUES (?, ?, ?)`,
		kind, snap.TakenAt.Format(time.RFC3339), records,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("inserting snapshot: %w", err)
	}
	snap.ID, err = res.LastInsertId()
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot id: %w", err)
	}
	return snap, nil
}

// SaveReports stores reports as a new snapshot.
func (s *Store) SaveReports(ctx context.Context, reports []types.Report) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	snap, err := newSnapshot(ctx, tx, KindReports, len(reports))
	if err != nil {
		return Snapshot{}, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reports (snapshot_id, position, id, type, state, record) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range reports {
		record, err := json.Marshal(r)
		if err != nil {
			return Snapshot{}, fmt.Errorf("encoding report %d: %w", r.ID, err)
		}
		var state any
		if r.Status != nil {
			state = string(r.Status.State)
		}
		if _, err := stmt.ExecContext(ctx, snap.ID, i, r.ID, string(r.Type), state, string(record)); err != nil {
			return Snapshot{}, fmt.Errorf("inserting report %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("committing snapshot: %w", err)
	}
	return snap, nil
}

// SaveHosts stores hosts and their detections as a new snapshot.
func (s *Store) SaveHosts(ctx context.Context, hosts []types.Host) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	snap, err := newSnapshot(ctx, tx, KindHosts, len(hosts))
	if err != nil {
		return Snapshot{}, err
	}

	hostStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hosts (snapshot_id, position, id, ip, record) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("preparing host insert: %w", err)
	}
	defer hostStmt.Close()

	detStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO detections (snapshot_id, host_id, position, qid, severity, type, status, port, results, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("preparing detection insert: %w", err)
	}
	defer detStmt.Close()

	for i, h := range hosts {
		record, err := json.Marshal(h)
		if err != nil {
			return Snapshot{}, fmt.Errorf("encoding host %d: %w", h.ID, err)
		}
		if _, err := hostStmt.ExecContext(ctx, snap.ID, i, h.ID, nullString(h.IP), string(record)); err != nil {
			return Snapshot{}, fmt.Errorf("inserting host %d: %w", h.ID, err)
		}
		for j, d := range h.Detections {
			drec, err := json.Marshal(d)
			if err != nil {
				return Snapshot{}, fmt.Errorf("encoding detection %d on host %d: %w", d.QID, h.ID, err)
			}
			_, err = detStmt.ExecContext(ctx, snap.ID, h.ID, j, d.QID, d.Severity,
				string(d.Type), string(d.Status), nullInt(d.Port), nullString(d.Results), string(drec))
			if err != nil {
				return Snapshot{}, fmt.Errorf("inserting detection %d on host %d: %w", d.QID, h.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("committing snapshot: %w", err)
	}
	return snap, nil
}

// Snapshots lists saved snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, taken_at, records FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var takenAt string
		if err := rows.Scan(&snap.ID, &snap.Kind, &takenAt, &snap.Records); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snap.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Latest returns the newest snapshot of kind.
func (s *Store) Latest(ctx context.Context, kind string) (Snapshot, error) {
	var snap Snapshot
	var takenAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, taken_at, records FROM snapshots WHERE kind = ? ORDER BY id DESC LIMIT 1`, kind,
	).Scan(&snap.ID, &snap.Kind, &takenAt, &snap.Records)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w of %s", ErrNoSnapshot, kind)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("querying latest %s snapshot: %w", kind, err)
	}
	snap.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return snap, nil
}

// Reports returns the reports of a snapshot in saved order.
func (s *Store) Reports(ctx context.Context, snapshotID int64) ([]types.Report, error) {
	return decodeRecords[types.Report](ctx, s.db,
		`SELECT record FROM reports WHERE snapshot_id = ? ORDER BY position`, snapshotID)
}

// Hosts returns the hosts of a snapshot, with detections, in saved order.
func (s *Store) Hosts(ctx context.Context, snapshotID int64) ([]types.Host, error) {
	return decodeRecords[types.Host](ctx, s.db,
		`SELECT record FROM hosts WHERE snapshot_id = ? ORDER BY position`, snapshotID)
}

func decodeRecords[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var rec T
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
