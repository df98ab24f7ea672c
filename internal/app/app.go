package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Olyame/tg-meditation/assets"
	"github.com/Olyame/tg-meditation/internal/config"
	"github.com/Olyame/tg-meditation/internal/registry"
	"github.com/Olyame/tg-meditation/internal/scheduler"
	"github.com/Olyame/tg-meditation/internal/store"
	"github.com/Olyame/tg-meditation/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server

	repo   store.Repo
	reg    *registry.Registry
	disp   *scheduler.Dispatcher
	sched  *scheduler.Scheduler
	router *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false

	a := &App{cfg: cfg, log: log, bot: bot}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.healthz)
	a.httpSrv = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	return a, nil
}

// wire builds the registry, dispatcher, scheduler and router on top of repo.
func (a *App) wire(ctx context.Context, repo store.Repo) error {
	reg, err := registry.Load(ctx, repo, a.cfg.DefaultTime)
	if err != nil {
		return err
	}
	a.repo, a.reg = repo, reg

	policy := scheduler.Policy(a.cfg.Policy)
	a.disp = scheduler.NewDispatcher(reg, telegram.NewSender(a.bot), a.log.Named("dispatcher"), scheduler.Options{
		Policy:      policy,
		Evict:       scheduler.EvictMode(a.cfg.EvictMode),
		Location:    a.cfg.Location,
		Text:        a.cfg.ReminderText,
		IsPermanent: telegram.IsPermanent,
	})

	a.sched = scheduler.New(a.cfg.Location, a.log.Named("scheduler"))
	// Ticks outlive shutdown cancellation so a running batch can finish.
	tickCtx := context.WithoutCancel(ctx)
	spec := scheduler.SpecFor(policy, a.cfg.DefaultTime)
	if err := a.sched.Register(spec, "reminder", func(now time.Time) { a.disp.Tick(tickCtx, now) }); err != nil {
		return err
	}

	a.router = telegram.NewRouter(a.bot, a.log.Named("router"), reg, a.disp, telegram.Options{
		Location: a.cfg.Location,
		Quotes:   assets.Quotes(),
	})
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting tg-meditation",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("policy", a.cfg.Policy),
		zap.String("tz", a.cfg.Location.String()),
		zap.Stringer("default_time", a.cfg.DefaultTime),
		zap.String("store", a.cfg.StoreDriver),
		zap.String("http", a.cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.Open(ctx, a.cfg.StoreDriver, a.cfg.StorePath)
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	if err := a.wire(ctx, repo); err != nil {
		_ = repo.Close()
		return err
	}
	a.log.Info("registry loaded", zap.Int("subscribers", a.reg.Len()))

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	a.sched.Start()
	a.log.Info("next reminder tick", zap.Time("at", a.sched.Next().In(a.cfg.Location)))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd, ok := <-updCh:
			if !ok {
				a.shutdown()
				return errors.New("telegram updates channel closed")
			}
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	a.bot.StopReceivingUpdates()

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.stopServices(shCtx)
}

// stopServices stops the scheduler, the HTTP server and the store. The
// store stays open when a tick is still running after ctx ends.
func (a *App) stopServices(ctx context.Context) {
	schedErr := a.sched.Stop(ctx)
	if schedErr != nil {
		a.log.Warn("scheduler stop error", zap.Error(schedErr))
	}
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(ctx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
	}
	if a.repo == nil {
		return
	}
	if schedErr != nil {
		a.log.Warn("store left open: reminder tick still running")
		return
	}
	if err := a.repo.Close(); err != nil {
		a.log.Warn("store close error", zap.Error(err))
	}
}

type health struct {
	Status      string    `json:"status"`
	Subscribers int       `json:"subscribers"`
	NextTick    time.Time `json:"next_tick"`
}

func (a *App) healthz(w http.ResponseWriter, _ *http.Request) {
	h := health{Status: "ok"}
	if a.reg != nil {
		h.Subscribers = a.reg.Len()
	}
	if a.sched != nil {
		h.NextTick = a.sched.Next()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h)
}
