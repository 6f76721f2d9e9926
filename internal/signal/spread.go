package signal

import (
	"math"

	"futureswatch/internal/market"
)

// SpreadValue is one named difference computed from the latest prices.
type SpreadValue struct {
	Def   market.SpreadDef
	Value market.Price
}

// ComputeSpreads evaluates LegA - LegB for every definition. A spread is missing
// whenever either leg is missing.
func ComputeSpreads(latest map[string]market.Price, defs []market.SpreadDef) []SpreadValue {
	out := make([]SpreadValue, 0, len(defs))
	for _, def := range defs {
		a, okA := latest[def.LegA].Get()
		b, okB := latest[def.LegB].Get()
		value := market.Missing()
		if okA && okB {
			value = market.Some(a - b)
		}
		out = append(out, SpreadValue{Def: def, Value: value})
	}
	return out
}

// Polarity tags which side of the trailing mean a spread anomaly sits on.
type Polarity string

const (
	PolarityHigh Polarity = "high"
	PolarityLow  Polarity = "low"
)

// Anomaly reports whether |z| reaches threshold and on which side.
func Anomaly(z, threshold float64) (Polarity, bool) {
	if math.Abs(z) < threshold {
		return "", false
	}
	if z > 0 {
		return PolarityHigh, true
	}
	return PolarityLow, true
}
