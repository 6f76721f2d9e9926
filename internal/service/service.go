package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"futureswatch/internal/alerting"
	"futureswatch/internal/config"
	"futureswatch/internal/engine"
	"futureswatch/internal/metrics"
	"futureswatch/internal/scheduler"
	"futureswatch/internal/storage"
)

// Service orchestrates polling, journaling, and alerting for one group.
type Service struct {
	scheduler  *scheduler.Scheduler
	engine     *engine.Engine
	state      *engine.State
	quotes     storage.QuoteStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	channels []string
	alertsOn bool
	locker   storage.AdvisoryLocker
	lockKey  int64

	mu     sync.RWMutex
	latest *engine.Board
}

// New constructs the monitoring service. Stores and notifier may be nil.
func New(cfg *config.Config, sched *scheduler.Scheduler, eng *engine.Engine, state *engine.State, quotes storage.QuoteStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var (
		locker  storage.AdvisoryLocker
		lockKey int64
	)
	if cfg.Scheduler.AdvisoryLock {
		if l, ok := quotes.(storage.AdvisoryLocker); ok {
			locker = l
			lockKey = storage.LockKey(state.Group)
		}
	}

	return &Service{
		scheduler:  sched,
		engine:     eng,
		state:      state,
		quotes:     quotes,
		alertStore: alertStore,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Str("group", state.Group).Logger(),
		channels:   cfg.Alerting.Channels,
		alertsOn:   cfg.Alerting.Enabled,
		locker:     locker,
		lockKey:    lockKey,
	}
}

// Run begins the session-aware polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, func(ctx context.Context, now time.Time, open bool) error {
		_, err := s.ProcessTick(ctx, now, open)
		return err
	})
}

// Latest returns the board of the most recent successful tick, or nil.
func (s *Service) Latest() *engine.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// ProcessTick runs one poll. A nil board with nil error means the tick was
// skipped because another process holds the group's advisory lock.
func (s *Service) ProcessTick(ctx context.Context, now time.Time, open bool) (*engine.Board, error) {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		metrics.TicksTotal.WithLabelValues(s.state.Group, "error").Inc()
		return nil, err
	}
	if !proceed {
		metrics.TicksTotal.WithLabelValues(s.state.Group, "skipped").Inc()
		s.logger.Debug().Time("at", now).Msg("skip tick because advisory lock held elsewhere")
		return nil, nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeTick(ctx, open)
}

func (s *Service) executeTick(ctx context.Context, open bool) (*engine.Board, error) {
	board, err := s.engine.Tick(ctx, s.state)
	if err != nil {
		metrics.TicksTotal.WithLabelValues(s.state.Group, "error").Inc()
		return nil, err
	}
	metrics.TicksTotal.WithLabelValues(s.state.Group, "ok").Inc()
	s.observe(board)

	if s.quotes != nil {
		if err := s.quotes.InsertQuotes(ctx, storage.QuoteRecords(board)); err != nil {
			s.logger.Error().Err(err).Time("at", board.Time).Msg("failed to journal quotes")
		}
	}

	prominent := 0
	for _, alert := range board.Alerts {
		metrics.AlertsTotal.WithLabelValues(s.state.Group, string(alert.Kind), string(alert.Mode)).Inc()
		if !alert.Prominent() {
			s.logger.Info().
				Str("kind", string(alert.Kind)).
				Str("key", alert.Key.String()).
				Str("mode", string(alert.Mode)).
				Msg(alert.Message)
			continue
		}
		prominent++
		s.logger.Warn().
			Str("kind", string(alert.Kind)).
			Str("key", alert.Key.String()).
			Str("mode", string(alert.Mode)).
			Msg(alert.Message)
		s.dispatch(ctx, alert)
	}

	breakout := string(board.Breakout.Direction)
	if !board.Breakout.Signal {
		breakout = string(board.Breakout.Reason)
	}
	s.logger.Info().
		Time("at", board.Time).
		Bool("market_open", open).
		Int("rows", len(board.Rows)).
		Str("focus", board.Focus).
		Str("focus_last", board.FocusPrice.Format(2)).
		Str("breakout", breakout).
		Int("alerts", len(board.Alerts)).
		Int("prominent", prominent).
		Msg("tick complete")

	s.mu.Lock()
	s.latest = board
	s.mu.Unlock()
	return board, nil
}

func (s *Service) dispatch(ctx context.Context, alert engine.Alert) {
	if s.alertStore != nil {
		if _, err := s.alertStore.InsertAlert(ctx, storage.AlertFromEngine(alert, s.channels)); err != nil {
			s.logger.Error().Err(err).Str("key", alert.Key.String()).Msg("failed to persist alert record")
		}
	}
	if !s.alertsOn || s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, alerting.FromAlert(alert, s.channels)); err != nil {
		s.logger.Error().Err(err).Str("key", alert.Key.String()).Msg("failed to dispatch alert")
	}
}

func (s *Service) observe(board *engine.Board) {
	for _, row := range board.Rows {
		if v, ok := row.Last.Get(); ok {
			metrics.LastPrice.WithLabelValues(board.Group, row.Label).Set(v)
		}
	}
	for _, sp := range board.Spreads {
		if z, ok := sp.Z.Get(); ok {
			metrics.SpreadZScore.WithLabelValues(board.Group, sp.Def.Name).Set(z)
		}
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
