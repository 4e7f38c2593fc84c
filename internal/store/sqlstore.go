//go:build sqlite
// +build sqlite

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ecss/internal/jobs"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// sqlStore persists jobs one row per job, body stored as JSON, in an
// embedded SQLite file.
type sqlStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) an embedded SQLite-backed job
// store at path.
func OpenSQLite(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("store: sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	return &sqlStore{db: db}, nil
}

func (s *sqlStore) Bootstrap(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqlStore) LoadAll(ctx context.Context) ([]*jobs.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM jobs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*jobs.Job
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var j jobs.Job
		if err := json.Unmarshal([]byte(body), &j); err != nil {
			return nil, fmt.Errorf("store: decode job row: %w", err)
		}
		out = append(out, &j)
	}
	return out, rows.Err()
}

func (s *sqlStore) Get(ctx context.Context, id string) (*jobs.Job, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM jobs WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var j jobs.Job
	if err := json.Unmarshal([]byte(body), &j); err != nil {
		return nil, fmt.Errorf("store: decode job %s: %w", id, err)
	}
	return &j, nil
}

func (s *sqlStore) Create(ctx context.Context, job *jobs.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO jobs(id, body) VALUES(?, ?)`, job.ID, string(body))
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *sqlStore) Update(ctx context.Context, job *jobs.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET body = ? WHERE id = ?`, string(body), job.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) Capabilities() []Capability { return FullCapabilitySet }

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint violations as *sqlite.Error
	// whose message contains "UNIQUE constraint failed"; matching on the
	// message avoids importing the driver's internal error type.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
