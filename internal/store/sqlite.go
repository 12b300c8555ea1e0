package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/audible-weather/internal/narration"
)

var _ narration.Journal = (*SQLiteStore)(nil)

// SQLiteStore persists the narration journal in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "narrations.db")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	log.Printf("INFO: opening narration journal at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS narrations (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		audio_bytes INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_narrations_started_at ON narrations(started_at);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStore{db: db, DBPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save inserts the record or replaces an existing one with the same ID.
func (s *SQLiteStore) Save(rec narration.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO narrations(id, kind, latitude, longitude, started_at, finished_at, audio_bytes, error)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		finished_at=excluded.finished_at,
		audio_bytes=excluded.audio_bytes,
		error=excluded.error`,
		rec.ID,
		string(rec.Kind),
		rec.Coordinates.Latitude,
		rec.Coordinates.Longitude,
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
		rec.AudioBytes,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save narration %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *SQLiteStore) Get(id string) (narration.Record, error) {
	row := s.db.QueryRow(`
		SELECT id, kind, latitude, longitude, started_at, finished_at, audio_bytes, error
		FROM narrations WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return narration.Record{}, ErrNotFound
	}
	if err != nil {
		return narration.Record{}, fmt.Errorf("failed to load narration %s: %w", id, err)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first. A limit <= 0 returns all.
func (s *SQLiteStore) Recent(limit int) ([]narration.Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(`
		SELECT id, kind, latitude, longitude, started_at, finished_at, audio_bytes, error
		FROM narrations ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query narrations: %w", err)
	}
	defer rows.Close()

	var result []narration.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan narration: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Prune deletes records started before cutoff and returns how many were removed.
func (s *SQLiteStore) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM narrations WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune narrations: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (narration.Record, error) {
	var (
		rec  narration.Record
		kind string
	)
	err := row.Scan(
		&rec.ID,
		&kind,
		&rec.Coordinates.Latitude,
		&rec.Coordinates.Longitude,
		&rec.StartedAt,
		&rec.FinishedAt,
		&rec.AudioBytes,
		&rec.Error,
	)
	if err != nil {
		return narration.Record{}, err
	}
	rec.Kind = narration.Kind(kind)
	return rec, nil
}
