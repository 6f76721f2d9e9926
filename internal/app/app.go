package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"futureswatch/internal/alerting"
	"futureswatch/internal/config"
	"futureswatch/internal/engine"
	"futureswatch/internal/fetcher"
	"futureswatch/internal/metrics"
	"futureswatch/internal/scheduler"
	"futureswatch/internal/service"
	"futureswatch/internal/session"
	sig "futureswatch/internal/signal"
	"futureswatch/internal/storage"
	"futureswatch/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() fetcher.QuoteSource {
	ua := a.Config.Source.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	return fetcher.NewSina(fetcher.SinaOptions{
		BaseURL:   a.Config.Source.BaseURL,
		Referer:   a.Config.Source.Referer,
		Timeout:   a.Config.Source.RequestTimeout,
		UserAgent: ua,
	}, a.Logger)
}

func (a *App) newSession() (session.Clock, error) {
	sched, err := session.NewSchedule(a.Config.Session.Timezone, a.Config.Session.Windows)
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// engineParams maps validated configuration onto engine parameters.
func (a *App) engineParams() (engine.Params, error) {
	group, err := a.Config.Group(a.Config.Engine.Group)
	if err != nil {
		return engine.Params{}, err
	}
	b := a.Config.Breakout
	return engine.Params{
		Group:   group,
		Focus:   a.Config.Engine.Focus,
		Spreads: a.Config.Spreads,
		Breakout: sig.BreakoutParams{
			Window:         b.Window,
			Confirm:        b.Confirm,
			Buffer:         b.Buffer,
			ATRLookback:    b.ATRLookback,
			StopMultiplier: b.StopMultiplier,
			RewardRisk:     b.RewardRisk,
		},
		ZWindow:          a.Config.ZScore.Window,
		ZThreshold:       a.Config.ZScore.Threshold,
		BreakoutCooldown: a.Config.Alerting.BreakoutCooldown,
		SpreadCooldown:   a.Config.Alerting.SpreadCooldown,
	}, nil
}

// newEngine builds an engine and its empty per-group state sharing one clock.
func (a *App) newEngine(source fetcher.QuoteSource, clock func() time.Time) (*engine.Engine, *engine.State, error) {
	params, err := a.engineParams()
	if err != nil {
		return nil, nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	eng := engine.New(source, params, a.Logger, engine.WithClock(clock))
	st := engine.NewState(params.Group.Name, a.Config.Engine.Capacity, clock)
	return eng, st, nil
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; journal disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if addr := a.Config.Metrics.Addr; addr != "" {
		srv := metrics.Serve(addr)
		defer srv.Close()
		a.Logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	}

	clock, err := a.newSession()
	if err != nil {
		return err
	}

	eng, st, err := a.newEngine(a.newSource(), nil)
	if err != nil {
		return err
	}

	var (
		quoteStore storage.QuoteStore
		alertStore storage.AlertStore
	)
	if store != nil {
		quoteStore = store
		alertStore = store
	}

	var sched *scheduler.Scheduler
	if a.Config.Scheduler.Enabled {
		sched = scheduler.New(scheduler.Options{
			FastInterval:      a.Config.Scheduler.FastInterval,
			SlowInterval:      a.Config.Scheduler.SlowInterval,
			OnlyDuringSession: a.Config.Scheduler.OnlyDuringSession,
			StartupDelay:      a.Config.Scheduler.StartupDelay,
			Clock:             clock,
		}, a.Logger)
	}

	svc := service.New(a.Config, sched, eng, st, quoteStore, alertStore, a.newNotifier(), a.Logger)

	if sched == nil {
		a.Logger.Info().Msg("polling disabled; running a single tick")
		now := time.Now()
		_, err := svc.ProcessTick(ctx, now, clock.IsOpen(now))
		return err
	}

	a.Logger.Info().Str("group", st.Group).Str("focus", a.Config.Engine.Focus).Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting journaled quotes.
type ExportOptions struct {
	Label     string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// AlertsOptions configure the alerts command.
type AlertsOptions struct {
	Limit int
	// PruneOlderThan deletes journaled alerts older than this age before listing.
	PruneOlderThan time.Duration
}

// ReplayOptions configure an offline replay.
type ReplayOptions struct {
	File    string
	Step    time.Duration
	Journal bool
	Notify  bool
}

// SimulateOptions describe a synthetic breakout pushed through the pipeline.
type SimulateOptions struct {
	Direction string
	Price     float64
}
