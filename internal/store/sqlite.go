package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/zeprog/absentee-table/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db, "sqlite3"); err != nil {
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

// GetUser returns the stored preferences or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, default_class, reminder_time, created_at, updated_at
		FROM users
		WHERE user_id = ?`,
		userID,
	)
	u, err := scanSQLiteUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

func (r *SQLiteRepo) SetClass(ctx context.Context, userID int64, username, class string) error {
	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, default_class, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username      = excluded.username,
			default_class = excluded.default_class,
			updated_at    = excluded.updated_at`,
		userID, toNullString(username), toNullString(class), now, now,
	)
	if err != nil {
		return fmt.Errorf("set class for %d: %w", userID, err)
	}
	return nil
}

func (r *SQLiteRepo) SetReminder(ctx context.Context, userID int64, username, class, reminderTime string) error {
	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, default_class, reminder_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username      = excluded.username,
			default_class = excluded.default_class,
			reminder_time = excluded.reminder_time,
			updated_at    = excluded.updated_at`,
		userID, toNullString(username), toNullString(class), toNullString(reminderTime), now, now,
	)
	if err != nil {
		return fmt.Errorf("set reminder for %d: %w", userID, err)
	}
	return nil
}

// ListUsers returns every stored record ordered by user id.
func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, username, default_class, reminder_time, created_at, updated_at
		FROM users
		ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(s rowScanner) (*domain.User, error) {
	var (
		userID       int64
		username     sql.NullString
		defaultClass sql.NullString
		reminderTime sql.NullString
		createdAt    int64
		updatedAt    int64
	)
	if err := s.Scan(&userID, &username, &defaultClass, &reminderTime, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return &domain.User{
		UserID:       userID,
		Username:     fromNullString(username),
		DefaultClass: fromNullString(defaultClass),
		ReminderTime: fromNullString(reminderTime),
		CreatedAt:    time.Unix(createdAt, 0).UTC(),
		UpdatedAt:    time.Unix(updatedAt, 0).UTC(),
	}, nil
}
