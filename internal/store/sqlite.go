package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Olyame/tg-meditation/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// Load returns every stored subscription.
func (r *SQLiteRepo) Load(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, hour, minute
		FROM subscribers
		ORDER BY chat_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Subscription
	for rows.Next() {
		var (
			chatID int64
			hour   sql.NullInt64
			minute sql.NullInt64
		)
		if err := rows.Scan(&chatID, &hour, &minute); err != nil {
			return nil, err
		}
		res = append(res, domain.Subscription{
			ChatID: chatID,
			Time:   fromNullClock(hour, minute),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Upsert inserts a subscription or replaces its time override.
func (r *SQLiteRepo) Upsert(ctx context.Context, s domain.Subscription) error {
	now := time.Now().UTC().Unix()
	hour, minute := toNullClock(s.Time)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (chat_id, hour, minute, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			hour       = excluded.hour,
			minute     = excluded.minute,
			updated_at = excluded.updated_at`,
		s.ChatID, hour, minute, now, now,
	)
	return err
}

// Delete removes a subscription together with its override.
func (r *SQLiteRepo) Delete(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = ?`, chatID)
	return err
}
