package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/zeprog/absentee-table/internal/domain"
)

// PostgresRepo implements Repo on top of a pgx connection pool.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, runs migrations and returns a repository.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	// goose works with *sql.DB, so wrap the pool for the migration run.
	db := stdlib.OpenDBFromPool(pool)
	err = RunMigrations(ctx, db, "postgres")
	_ = db.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, username, default_class, reminder_time, created_at, updated_at
		FROM users
		WHERE user_id = $1`,
		userID,
	)
	u, err := scanPostgresUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

func (r *PostgresRepo) SetClass(ctx context.Context, userID int64, username, class string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (user_id, username, default_class)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			username      = EXCLUDED.username,
			default_class = EXCLUDED.default_class,
			updated_at    = now()`,
		userID, toNullString(username), toNullString(class),
	)
	if err != nil {
		return fmt.Errorf("set class for %d: %w", userID, err)
	}
	return nil
}

func (r *PostgresRepo) SetReminder(ctx context.Context, userID int64, username, class, reminderTime string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (user_id, username, default_class, reminder_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			username      = EXCLUDED.username,
			default_class = EXCLUDED.default_class,
			reminder_time = EXCLUDED.reminder_time,
			updated_at    = now()`,
		userID, toNullString(username), toNullString(class), toNullString(reminderTime),
	)
	if err != nil {
		return fmt.Errorf("set reminder for %d: %w", userID, err)
	}
	return nil
}

func (r *PostgresRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, username, default_class, reminder_time, created_at, updated_at
		FROM users
		ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanPostgresUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func scanPostgresUser(row pgx.Row) (*domain.User, error) {
	var (
		u            domain.User
		username     pgtype.Text
		defaultClass pgtype.Text
		reminderTime pgtype.Text
	)
	if err := row.Scan(&u.UserID, &username, &defaultClass, &reminderTime, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Username = username.String
	u.DefaultClass = defaultClass.String
	u.ReminderTime = reminderTime.String
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
