package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"futureswatch/internal/debounce"
	"futureswatch/internal/fetcher"
	"futureswatch/internal/market"
	"futureswatch/internal/series"
	"futureswatch/internal/signal"
)

// ErrFetch wraps quote source failures. A tick failing with it left State untouched.
var ErrFetch = errors.New("fetch quotes")

// Params are the validated knobs of one engine.
type Params struct {
	Group            market.Group
	Focus            string
	Spreads          []market.SpreadDef
	Breakout         signal.BreakoutParams
	ZWindow          int
	ZThreshold       float64
	BreakoutCooldown time.Duration
	SpreadCooldown   time.Duration
}

// Engine turns quote polls into board snapshots and alerts.
type Engine struct {
	source fetcher.QuoteSource
	params Params
	now    func() time.Time
	logger zerolog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used to stamp boards.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// New constructs an Engine over a quote source.
func New(source fetcher.QuoteSource, params Params, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		params: params,
		now:    time.Now,
		logger: logger.With().Str("component", "engine").Str("group", params.Group.Name).Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick runs one poll cycle: fetch, normalise, store, score spreads, detect the
// focus breakout and gate alerts through the cooldown tables in st.
func (e *Engine) Tick(ctx context.Context, st *State) (*Board, error) {
	quotes, err := e.source.Fetch(ctx, e.params.Group.Symbols())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	board := &Board{
		Time:  e.now(),
		Group: e.params.Group.Name,
		Focus: e.params.Focus,
		Rows:  normalise(e.params.Group, quotes),
	}

	latest := make(map[string]market.Price, len(board.Rows))
	for _, row := range board.Rows {
		latest[row.Label] = row.Last
		if v, ok := row.Last.Get(); ok {
			st.Series.Append(series.PriceKey(st.Group, row.Label), v)
		}
	}

	board.Spreads = e.scoreSpreads(st, latest, board)
	board.FocusPrice = latest[e.params.Focus]
	board.Breakout = e.evaluateBreakout(st, board)

	e.logger.Debug().
		Int("rows", len(board.Rows)).
		Int("series", len(st.Series.Keys())).
		Int("alerts", len(board.Alerts)).
		Str("breakout", describe(board.Breakout)).
		Msg("tick evaluated")
	return board, nil
}

func normalise(group market.Group, quotes map[string]market.QuoteSample) []market.Row {
	rows := make([]market.Row, 0, len(group.Instruments))
	for _, inst := range group.Instruments {
		row := market.Row{Label: inst.Label, Symbol: inst.Symbol}
		if q, ok := quotes[inst.Symbol]; ok {
			row.Name = q.Name
			row.Last = q.Last
			row.Open = q.Open
			row.High = q.High
			row.Low = q.Low
		}
		rows = append(rows, row)
	}
	return rows
}

func (e *Engine) scoreSpreads(st *State, latest map[string]market.Price, board *Board) []SpreadReading {
	values := signal.ComputeSpreads(latest, e.params.Spreads)
	readings := make([]SpreadReading, 0, len(values))
	for _, sv := range values {
		key := series.SpreadKey(st.Group, sv.Def.Name)
		reading := SpreadReading{Def: sv.Def, Value: sv.Value}

		v, ok := sv.Value.Get()
		if !ok {
			reading.Status = StatusMissing
			reading.Samples = st.Series.Len(key)
			readings = append(readings, reading)
			continue
		}
		st.Series.Append(key, v)

		window := st.Series.Snapshot(key, e.params.ZWindow)
		reading.Samples = len(window)
		z, err := signal.ZScore(window)
		switch {
		case errors.Is(err, signal.ErrInsufficientSamples):
			reading.Status = StatusInsufficient
		case errors.Is(err, signal.ErrZeroVariance):
			reading.Status = StatusFlat
		case err != nil:
			reading.Status = StatusMissing
		default:
			reading.Status = StatusOK
			reading.Z = market.Some(z)
			if polarity, hit := signal.Anomaly(z, e.params.ZThreshold); hit {
				reading.Polarity = polarity
				board.Alerts = append(board.Alerts, e.spreadAlert(st, reading, board.Time))
			}
		}
		readings = append(readings, reading)
	}
	return readings
}

func (e *Engine) spreadAlert(st *State, reading SpreadReading, at time.Time) Alert {
	key := debounce.Key{Group: st.Group, Subject: reading.Def.Name, Side: string(reading.Polarity)}
	z, _ := reading.Z.Get()
	v, _ := reading.Value.Get()
	alert := Alert{
		Kind:   KindSpread,
		Key:    key,
		At:     at,
		Spread: &reading,
		Message: fmt.Sprintf("%s %s spread %.2f is %s: z=%.2f over %d samples (threshold %.2f)",
			st.Group, reading.Def.Name, v, reading.Polarity, z, reading.Samples, e.params.ZThreshold),
	}
	if st.SpreadCooldowns.MayEmit(key, e.params.SpreadCooldown) {
		alert.Mode = ModeProminent
	} else {
		alert.Mode = ModeMuted
	}
	return alert
}

func (e *Engine) evaluateBreakout(st *State, board *Board) signal.BreakoutResult {
	if !board.FocusPrice.Valid() {
		return signal.BreakoutResult{Reason: signal.ReasonNoQuote, Detail: "no valid quote for " + e.params.Focus}
	}

	history := st.Series.Snapshot(series.PriceKey(st.Group, e.params.Focus), 0)
	result := signal.DetectBreakout(history, e.params.Breakout)
	if !result.Signal {
		return result
	}

	key := debounce.Key{Group: st.Group, Subject: e.params.Focus, Side: string(result.Direction)}
	alert := Alert{
		Kind:     KindBreakout,
		Key:      key,
		At:       board.Time,
		Breakout: &result,
		Message: fmt.Sprintf("%s%s breakout %s: entry %.2f stop %.2f target %s (%s)",
			e.params.Focus, st.Group, result.Direction, result.Entry, result.Stop, result.Target.Format(2), result.Rationale),
	}
	if st.BreakoutCooldowns.MayEmit(key, e.params.BreakoutCooldown) {
		alert.Mode = ModeProminent
	} else {
		alert.Mode = ModeMuted
	}
	board.Alerts = append(board.Alerts, alert)
	return result
}

func describe(res signal.BreakoutResult) string {
	if res.Signal {
		return string(res.Direction)
	}
	return string(res.Reason)
}
