package signal

import (
	"fmt"
	"math"

	"futureswatch/internal/market"
)

// BreakoutParams configure DetectBreakout. All values are validated upstream.
type BreakoutParams struct {
	Window         int     // N: reference range length
	Confirm        int     // K: consecutive confirmations
	Buffer         float64 // B: price tolerance beyond the range
	ATRLookback    int     // L: volatility proxy lookback
	StopMultiplier float64 // M
	RewardRisk     float64 // R
}

// MinSamples is the history length required before any evaluation.
func (p BreakoutParams) MinSamples() int { return p.Window + p.Confirm + 5 }

// NoSignalReason explains an empty BreakoutResult.
type NoSignalReason string

const (
	ReasonNone             NoSignalReason = ""
	ReasonInsufficientData NoSignalReason = "insufficient_data"
	ReasonNotConfirmed     NoSignalReason = "not_confirmed"
	ReasonNoQuote          NoSignalReason = "no_quote"
)

// BreakoutResult is either a signal or a no-signal with a reason.
type BreakoutResult struct {
	Signal     bool
	Reason     NoSignalReason
	Detail     string
	Direction  market.Direction
	Entry      float64
	Stop       float64
	Target     market.Price
	Level      float64
	Volatility market.Price
	Rationale  string
}

// DetectBreakout checks whether the last K samples all closed beyond the range of
// the N samples preceding them, and derives entry/stop/target levels.
// The reference range excludes the confirmation samples themselves.
// If long and short confirm at once, LONG wins.
func DetectBreakout(history []float64, p BreakoutParams) BreakoutResult {
	values := finite(history)
	need := p.MinSamples()
	if len(values) < need {
		return BreakoutResult{
			Reason: ReasonInsufficientData,
			Detail: fmt.Sprintf("insufficient sample size: have %d, need %d", len(values), need),
		}
	}

	base := values[:len(values)-p.Confirm]
	recent := values[len(values)-p.Confirm:]
	window := base[len(base)-p.Window:]

	high, low := math.Inf(-1), math.Inf(1)
	for _, v := range window {
		high = math.Max(high, v)
		low = math.Min(low, v)
	}

	longOK, shortOK := true, true
	for _, v := range recent {
		if !(v > high+p.Buffer) {
			longOK = false
		}
		if !(v < low-p.Buffer) {
			shortOK = false
		}
	}

	vol, volErr := VolatilityProxy(values, p.ATRLookback)
	volatility := market.Missing()
	if volErr == nil {
		volatility = market.Some(vol)
	}
	entry := values[len(values)-1]

	switch {
	case longOK:
		stop := high
		if volErr == nil {
			stop = math.Min(high, high-p.StopMultiplier*vol)
		}
		rationale := fmt.Sprintf("%d consecutive samples above %.2f (%d-sample high %.2f + buffer %.2f)",
			p.Confirm, high+p.Buffer, p.Window, high, p.Buffer)
		return BreakoutResult{
			Signal:     true,
			Direction:  market.Long,
			Entry:      entry,
			Stop:       stop,
			Target:     target(entry, entry-stop, p.RewardRisk, 1),
			Level:      high,
			Volatility: volatility,
			Rationale:  rationale,
		}
	case shortOK:
		stop := low
		if volErr == nil {
			stop = math.Max(low, low+p.StopMultiplier*vol)
		}
		rationale := fmt.Sprintf("%d consecutive samples below %.2f (%d-sample low %.2f - buffer %.2f)",
			p.Confirm, low-p.Buffer, p.Window, low, p.Buffer)
		return BreakoutResult{
			Signal:     true,
			Direction:  market.Short,
			Entry:      entry,
			Stop:       stop,
			Target:     target(entry, stop-entry, p.RewardRisk, -1),
			Level:      low,
			Volatility: volatility,
			Rationale:  rationale,
		}
	default:
		return BreakoutResult{
			Reason: ReasonNotConfirmed,
			Detail: fmt.Sprintf("not confirmed: range %.2f-%.2f, buffer %.2f, K=%d", low, high, p.Buffer, p.Confirm),
			Level:  high,
		}
	}
}

// target stays missing when risk is not positive.
func target(entry, risk, rewardRisk, sign float64) market.Price {
	if risk <= 0 {
		return market.Missing()
	}
	return market.Some(entry + sign*rewardRisk*risk)
}
