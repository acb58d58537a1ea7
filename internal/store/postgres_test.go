package store

import (
	"context"
	"errors"
	"os"
	"testing"
)

// Runs only against a real server: TEST_PG_DSN=postgres://... go test ./internal/store
func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()

	repo, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer repo.Close()

	const id = int64(-424242)
	t.Cleanup(func() {
		_, _ = repo.pool.Exec(context.Background(), `DELETE FROM users WHERE user_id = $1`, id)
	})

	if _, err := repo.GetUser(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := repo.SetClass(ctx, id, "pg", "10а"); err != nil {
		t.Fatalf("set class: %v", err)
	}
	if err := repo.SetReminder(ctx, id, "pg", "10а", "12:00"); err != nil {
		t.Fatalf("set reminder: %v", err)
	}
	u, err := repo.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.DefaultClass != "10а" || u.ReminderTime != "12:00" || u.Username != "pg" {
		t.Fatalf("unexpected record: %+v", u)
	}
}
