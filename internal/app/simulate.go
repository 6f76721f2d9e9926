package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"futureswatch/internal/engine"
	"futureswatch/internal/fetcher"
	"futureswatch/internal/market"
	"futureswatch/internal/service"
)

// SimulateAlert 构造一段盘整后突破的行情，走完整条告警链路。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	direction := market.Direction(strings.ToUpper(opts.Direction))
	if direction != market.Long && direction != market.Short {
		return fmt.Errorf("direction must be LONG or SHORT, got %q", opts.Direction)
	}
	if opts.Price <= 0 {
		return errors.New("--price 必须大于 0")
	}

	script := &scriptedSource{prices: a.breakoutScript(direction, opts.Price)}
	clock := &stepClock{t: time.Now(), step: a.Config.Scheduler.FastInterval}
	eng, st, err := a.newEngine(script, clock.Now)
	if err != nil {
		return err
	}

	svc := service.New(a.Config, nil, eng, st, nil, nil, notifier, a.Logger)
	for range script.prices {
		board, err := svc.ProcessTick(ctx, clock.Now(), true)
		if err != nil {
			return err
		}
		if board == nil {
			return ErrGroupLocked
		}
		for _, alert := range board.ProminentAlerts() {
			if alert.Kind == engine.KindBreakout {
				a.Logger.Info().Str("key", alert.Key.String()).Msg("模拟告警已发送")
				return nil
			}
		}
		clock.Advance()
	}
	return errors.New("simulated series did not produce a breakout")
}

// breakoutScript is a flat range of N+5 samples followed by K samples clearing it.
func (a *App) breakoutScript(direction market.Direction, base float64) []float64 {
	b := a.Config.Breakout
	prices := make([]float64, 0, b.Window+b.Confirm+5)
	for i := 0; i < b.Window+5; i++ {
		prices = append(prices, base+float64(i%2))
	}
	jump := b.Buffer + 2
	for i := 0; i < b.Confirm; i++ {
		if direction == market.Long {
			prices = append(prices, base+1+jump+float64(i))
		} else {
			prices = append(prices, base-jump-float64(i))
		}
	}
	return prices
}

// scriptedSource quotes every instrument of the group at the same scripted
// price, so spreads stay flat and only the breakout fires.
type scriptedSource struct {
	prices []float64
	pos    int
}

func (s *scriptedSource) Fetch(_ context.Context, symbols []string) (map[string]market.QuoteSample, error) {
	if s.pos >= len(s.prices) {
		return nil, fetcher.ErrReplayExhausted
	}
	px := s.prices[s.pos]
	s.pos++

	out := make(map[string]market.QuoteSample, len(symbols))
	for _, sym := range symbols {
		out[sym] = market.QuoteSample{Symbol: sym, Name: sym, Open: market.Some(px), Last: market.Some(px)}
	}
	return out, nil
}

var _ fetcher.QuoteSource = (*scriptedSource)(nil)
