package engine

import (
	"time"

	"futureswatch/internal/debounce"
	"futureswatch/internal/market"
	"futureswatch/internal/signal"
)

// SpreadStatus explains whether a spread reading carries a z-score.
type SpreadStatus string

const (
	StatusOK           SpreadStatus = "ok"
	StatusMissing      SpreadStatus = "missing"
	StatusInsufficient SpreadStatus = "insufficient"
	StatusFlat         SpreadStatus = "flat"
)

// SpreadReading is the latest value and score of one spread.
type SpreadReading struct {
	Def      market.SpreadDef
	Value    market.Price
	Z        market.Price
	Status   SpreadStatus
	Samples  int
	Polarity signal.Polarity
}

// AlertKind separates the two signal classes.
type AlertKind string

const (
	KindBreakout AlertKind = "breakout"
	KindSpread   AlertKind = "spread"
)

// AlertMode says how loudly a live signal should be surfaced.
type AlertMode string

const (
	// ModeProminent is the first emission after the cooldown elapsed.
	ModeProminent AlertMode = "prominent"
	// ModeMuted is a still-active signal inside its cooldown.
	ModeMuted AlertMode = "muted"
)

// Alert is a live signal found during a tick.
type Alert struct {
	Kind     AlertKind
	Mode     AlertMode
	Key      debounce.Key
	At       time.Time
	Message  string
	Breakout *signal.BreakoutResult
	Spread   *SpreadReading
}

// Prominent reports whether the alert passed its cooldown gate.
func (a Alert) Prominent() bool { return a.Mode == ModeProminent }

// Board is the presentation-facing result of one tick.
type Board struct {
	Time       time.Time
	Group      string
	Rows       []market.Row
	Spreads    []SpreadReading
	Focus      string
	FocusPrice market.Price
	Breakout   signal.BreakoutResult
	Alerts     []Alert
}

// ProminentAlerts filters alerts that passed the cooldown gate.
func (b *Board) ProminentAlerts() []Alert {
	out := make([]Alert, 0, len(b.Alerts))
	for _, a := range b.Alerts {
		if a.Prominent() {
			out = append(out, a)
		}
	}
	return out
}
