package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores one row per user.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	_, err := r.db.Exec(`
	CREATE TABLE IF NOT EXISTS credentials (
		user_id      INTEGER PRIMARY KEY,
		access_token TEXT NOT NULL,
		user_urn     TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);`)
	return err
}

func (r *SQLiteRepository) Close() error { return r.db.Close() }

func (r *SQLiteRepository) Get(ctx context.Context, userID int64) (Record, error) {
	var rec Record
	err := r.db.QueryRowContext(ctx,
		`SELECT access_token, user_urn FROM credentials WHERE user_id = ?`, userID,
	).Scan(&rec.AccessToken, &rec.UserURN)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get credentials: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, userID int64, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO credentials (user_id, access_token, user_urn, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		access_token = excluded.access_token,
		user_urn = excluded.user_urn,
		updated_at = excluded.updated_at`,
		userID, rec.AccessToken, rec.UserURN, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put credentials: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, access_token, user_urn FROM credentials ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.Record.AccessToken, &e.Record.UserURN); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
