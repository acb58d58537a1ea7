package scheduler

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeprog/absentee-table/internal/domain"
)

type fakeRepo struct {
	users []domain.User
	err   error
}

func (f *fakeRepo) GetUser(context.Context, int64) (*domain.User, error) { return nil, nil }
func (f *fakeRepo) SetClass(context.Context, int64, string, string) error { return nil }
func (f *fakeRepo) SetReminder(context.Context, int64, string, string, string) error {
	return nil
}
func (f *fakeRepo) ListUsers(context.Context) ([]domain.User, error) { return f.users, f.err }
func (f *fakeRepo) Close() error                                     { return nil }

type fakeSender struct {
	sent []int64
	fail map[int64]bool
}

func (f *fakeSender) SendConfirmation(chatID int64) error {
	if f.fail[chatID] {
		return errors.New("blocked by user")
	}
	f.sent = append(f.sent, chatID)
	return nil
}

func at(hh, mm int) time.Time {
	return time.Date(2024, 5, 12, hh, mm, 0, 0, time.Local)
}

func newTestScheduler(t *testing.T, repo *fakeRepo, sender *fakeSender, log *zap.Logger) *Scheduler {
	t.Helper()
	s, err := New(repo, log, sender, nil, clockwork.NewFakeClock())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestTick_SendsToDueUsersOnly(t *testing.T) {
	repo := &fakeRepo{users: []domain.User{
		{UserID: 1, DefaultClass: "7а", ReminderTime: "09:00"},
		{UserID: 2, DefaultClass: "7б", ReminderTime: "12:00"},
		{UserID: 3, DefaultClass: "7в", ReminderTime: "09:00"},
		{UserID: 4, DefaultClass: "7г"},
	}}
	sender := &fakeSender{}
	s := newTestScheduler(t, repo, sender, zap.NewNop())

	if n := s.Tick(context.Background(), at(9, 0)); n != 2 {
		t.Fatalf("want 2 sent at 09:00, got %d", n)
	}
	if !reflect.DeepEqual(sender.sent, []int64{1, 3}) {
		t.Fatalf("unexpected recipients %v", sender.sent)
	}

	sender.sent = nil
	if n := s.Tick(context.Background(), at(9, 1)); n != 0 || len(sender.sent) != 0 {
		t.Fatalf("nothing is due at 09:01, got %v", sender.sent)
	}
}

func TestTick_IgnoresSeconds(t *testing.T) {
	repo := &fakeRepo{users: []domain.User{{UserID: 1, ReminderTime: "17:00"}}}
	sender := &fakeSender{}
	s := newTestScheduler(t, repo, sender, zap.NewNop())

	if n := s.Tick(context.Background(), at(17, 0).Add(42*time.Second)); n != 1 {
		t.Fatalf("want 1 sent, got %d", n)
	}
}

func TestTick_SendFailureDoesNotStopOthers(t *testing.T) {
	repo := &fakeRepo{users: []domain.User{
		{UserID: 1, ReminderTime: "15:00"},
		{UserID: 2, ReminderTime: "15:00"},
	}}
	sender := &fakeSender{fail: map[int64]bool{1: true}}
	core, logs := observer.New(zap.ErrorLevel)
	s := newTestScheduler(t, repo, sender, zap.New(core))

	if n := s.Tick(context.Background(), at(15, 0)); n != 1 {
		t.Fatalf("want 1 sent, got %d", n)
	}
	if !reflect.DeepEqual(sender.sent, []int64{2}) {
		t.Fatalf("unexpected recipients %v", sender.sent)
	}
	if logs.FilterMessage("send reminder failed").Len() != 1 {
		t.Fatalf("send failure must be logged, got %v", logs.All())
	}
}

func TestTick_StoreError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("database is locked")}
	sender := &fakeSender{}
	core, logs := observer.New(zap.ErrorLevel)
	s := newTestScheduler(t, repo, sender, zap.New(core))

	if n := s.Tick(context.Background(), at(9, 0)); n != 0 {
		t.Fatalf("want nothing sent, got %d", n)
	}
	if logs.FilterMessage("list users failed").Len() != 1 {
		t.Fatalf("store error must be logged, got %v", logs.All())
	}
}
