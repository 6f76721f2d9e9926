package market

import (
	"math"
	"strconv"
)

// Price is an optional numeric quote field. The zero value is missing.
type Price struct {
	value float64
	valid bool
}

// Some wraps a finite value; non-finite input yields a missing Price.
func Some(v float64) Price {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Price{}
	}
	return Price{value: v, valid: true}
}

// Missing returns an absent Price.
func Missing() Price { return Price{} }

// Get returns the value and whether it is present.
func (p Price) Get() (float64, bool) { return p.value, p.valid }

// Valid reports whether the value is present.
func (p Price) Valid() bool { return p.valid }

// Or returns the value or fallback when missing.
func (p Price) Or(fallback float64) float64 {
	if !p.valid {
		return fallback
	}
	return p.value
}

// Format renders the price with the given decimals, "-" when missing.
func (p Price) Format(places int) string {
	if !p.valid {
		return "-"
	}
	return strconv.FormatFloat(p.value, 'f', places, 64)
}

// QuoteSample is one instrument's snapshot at a poll instant.
type QuoteSample struct {
	Symbol string
	Name   string
	Open   Price
	High   Price
	Low    Price
	Last   Price
}

// Instrument is one tracked contract inside a group.
type Instrument struct {
	Label  string `mapstructure:"label"`
	Symbol string `mapstructure:"symbol"`
}

// Group is an ordered set of related instruments, e.g. all 2605 contracts.
type Group struct {
	Name        string
	Instruments []Instrument
}

// Symbols returns the vendor symbols in group order.
func (g Group) Symbols() []string {
	out := make([]string, 0, len(g.Instruments))
	for _, inst := range g.Instruments {
		out = append(out, inst.Symbol)
	}
	return out
}

// Lookup finds an instrument by label.
func (g Group) Lookup(label string) (Instrument, bool) {
	for _, inst := range g.Instruments {
		if inst.Label == label {
			return inst, true
		}
	}
	return Instrument{}, false
}

// SpreadDef names a pairwise difference LegA - LegB between two instrument labels.
type SpreadDef struct {
	Name string `mapstructure:"name"`
	LegA string `mapstructure:"leg_a"`
	LegB string `mapstructure:"leg_b"`
}

// Row is the normalised board row for one instrument.
type Row struct {
	Label  string
	Symbol string
	Name   string
	Last   Price
	Open   Price
	High   Price
	Low    Price
}

// Direction of a breakout signal.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)
