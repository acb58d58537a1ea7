package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/zeprog/absentee-table/internal/config"
	"github.com/zeprog/absentee-table/internal/scheduler"
	"github.com/zeprog/absentee-table/internal/session"
	"github.com/zeprog/absentee-table/internal/sheets"
	"github.com/zeprog/absentee-table/internal/store"
	"github.com/zeprog/absentee-table/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	sched   *scheduler.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting absentee-table bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("store", a.cfg.StoreDriver),
		zap.String("http", a.cfg.HTTPAddr),
	)

	repo, err := store.Open(ctx, a.cfg.StoreDriver, a.cfg.DBPath, a.cfg.DBDSN)
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("store ready", zap.String("driver", a.cfg.StoreDriver))

	gw, err := sheets.NewGoogleGateway(ctx, a.cfg.SpreadsheetID, a.cfg.CredentialsFile, a.cfg.SheetsTimeout, a.log)
	if err != nil {
		a.log.Error("sheets client failed", zap.Error(err))
		_ = a.repo.Close()
		return err
	}

	sessions := session.NewManager(a.cfg.SessionTTL, a.cfg.MaxSessions, clockwork.NewRealClock())
	a.router = telegram.NewRouter(a.bot, a.log, a.repo, gw, sessions)
	if err := a.router.RegisterCommands(); err != nil {
		a.log.Warn("set commands failed", zap.Error(err))
	}

	a.sched, err = scheduler.New(a.repo, a.log, a.router, sessions, clockwork.NewRealClock())
	if err != nil {
		a.log.Error("scheduler init failed", zap.Error(err))
		_ = a.repo.Close()
		return err
	}
	a.sched.Start()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	a.bot.StopReceivingUpdates()

	if err := a.sched.Shutdown(); err != nil {
		a.log.Warn("scheduler shutdown error", zap.Error(err))
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("store close error", zap.Error(err))
		}
	}
}
