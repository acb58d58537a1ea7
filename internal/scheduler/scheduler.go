package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/zeprog/absentee-table/internal/domain"
	"github.com/zeprog/absentee-table/internal/store"
)

// Sender pushes the daily confirmation prompt to a user.
// telegram.Router implements this.
type Sender interface {
	SendConfirmation(chatID int64) error
}

// Sweeper drops expired dialogue state. session.Manager implements this.
type Sweeper interface {
	Sweep() int
}

const sweepInterval = 10 * time.Minute

// Scheduler fires reminders at the start of every minute and periodically
// sweeps stale sessions.
type Scheduler struct {
	repo    store.Repo
	log     *zap.Logger
	sender  Sender
	sweeper Sweeper
	clock   clockwork.Clock

	cron   gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// New registers the jobs without starting them. sweeper may be nil.
// A nil clock means wall time.
func New(repo store.Repo, log *zap.Logger, sender Sender, sweeper Sweeper, clock clockwork.Clock) (*Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cron, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(time.Local),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		repo:    repo,
		log:     log,
		sender:  sender,
		sweeper: sweeper,
		clock:   clock,
		cron:    cron,
		ctx:     ctx,
		cancel:  cancel,
	}

	// A slow tick is rescheduled rather than run twice concurrently.
	if _, err := cron.NewJob(
		gocron.CronJob("* * * * *", false),
		gocron.NewTask(func() { s.Tick(s.ctx, s.clock.Now()) }),
		gocron.WithName("reminders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		cancel()
		_ = cron.Shutdown()
		return nil, err
	}

	if sweeper != nil {
		if _, err := cron.NewJob(
			gocron.DurationJob(sweepInterval),
			gocron.NewTask(func() {
				if n := s.sweeper.Sweep(); n > 0 {
					s.log.Debug("expired sessions dropped", zap.Int("count", n))
				}
			}),
			gocron.WithName("session-sweep"),
		); err != nil {
			cancel()
			_ = cron.Shutdown()
			return nil, err
		}
	}

	return s, nil
}

// Start begins running the registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Shutdown stops the jobs and waits for running ones to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	err := s.cron.Shutdown()
	s.log.Info("scheduler stopped")
	return err
}

// Tick sends the confirmation prompt to every user whose reminder time
// equals the HH:MM of now. It returns the number of prompts sent.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	key := domain.MinuteKey(now)

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		s.log.Error("list users failed", zap.Error(err))
		return 0
	}

	sent := 0
	for _, u := range users {
		if !u.HasReminder() || u.ReminderTime != key {
			continue
		}
		if err := s.sender.SendConfirmation(u.UserID); err != nil {
			s.log.Error("send reminder failed", zap.Error(err), zap.Int64("userID", u.UserID))
			continue
		}
		sent++
	}
	if sent > 0 {
		s.log.Info("reminders sent", zap.String("time", key), zap.Int("count", sent))
	}
	return sent
}
