package store

import (
	"context"
	"errors"

	"github.com/zeprog/absentee-table/internal/domain"
)

// ErrNotFound is returned when no record exists for a user.
var ErrNotFound = errors.New("user not found")

// Repo defines the preference store used by the dialogue and the scheduler.
// Every write is an independent upsert; there are no multi-field transactions.
type Repo interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	// SetClass creates the record if needed and overwrites default_class only.
	SetClass(ctx context.Context, userID int64, username, class string) error
	// SetReminder writes reminder_time together with the class it was chosen for.
	SetReminder(ctx context.Context, userID int64, username, class, reminderTime string) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	Close() error
}
