package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"futureswatch/internal/alerting"
	"futureswatch/internal/fetcher"
	"futureswatch/internal/service"
	"futureswatch/internal/storage"
)

// stepClock advances by a fixed step on every Advance, so cooldowns in a
// replay follow recorded time instead of wall time.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time { return c.t }
func (c *stepClock) Advance()       { c.t = c.t.Add(c.step) }

// ErrGroupLocked reports that another process holds the group's advisory lock.
var ErrGroupLocked = errors.New("group locked by another writer")

// Replay drives the engine offline from a recorded CSV and prints every alert.
func (a *App) Replay(ctx context.Context, opts ReplayOptions) error {
	file, err := os.Open(opts.File)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	defer file.Close()

	var store *storage.Store
	if opts.Journal {
		var closeStore func()
		store, closeStore, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database.dsn 未配置，无法写入回放结果")
		}
		if closeStore != nil {
			defer closeStore()
		}
	}

	var notifier alerting.Notifier
	if opts.Notify {
		notifier = a.newNotifier()
	}

	var (
		quoteStore storage.QuoteStore
		alertStore storage.AlertStore
	)
	if store != nil {
		quoteStore, alertStore = store, store
	}
	return a.replay(ctx, file, opts, quoteStore, alertStore, notifier, os.Stdout)
}

func (a *App) replay(ctx context.Context, r io.Reader, opts ReplayOptions, quoteStore storage.QuoteStore, alertStore storage.AlertStore, notifier alerting.Notifier, out io.Writer) error {
	source, err := fetcher.NewReplay(r)
	if err != nil {
		return err
	}

	step := opts.Step
	if step <= 0 {
		step = a.Config.Scheduler.FastInterval
	}
	clock := &stepClock{t: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), step: step}

	eng, st, err := a.newEngine(source, clock.Now)
	if err != nil {
		return err
	}

	svc := service.New(a.Config, nil, eng, st, quoteStore, alertStore, notifier, a.Logger)

	processed, prominent := 0, 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		board, err := svc.ProcessTick(ctx, clock.Now(), true)
		if errors.Is(err, fetcher.ErrReplayExhausted) {
			break
		}
		if err != nil {
			return err
		}
		if board == nil {
			return fmt.Errorf("replay tick %d: %w", processed+1, ErrGroupLocked)
		}
		processed++
		for _, alert := range board.Alerts {
			if !alert.Prominent() {
				continue
			}
			prominent++
			fmt.Fprintf(out, "#%d %s\n", processed, alert.Message)
		}
		clock.Advance()
	}

	a.Logger.Info().Int("ticks", processed).Int("alerts", prominent).Msg("回放完成")
	return nil
}
