package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"futureswatch/internal/market"
)

// ErrReplayExhausted is returned once every recorded tick has been served.
var ErrReplayExhausted = errors.New("replay exhausted")

// Replay serves recorded quote ticks in order, one tick per Fetch call.
type Replay struct {
	ticks []map[string]market.QuoteSample
	pos   int
}

// NewReplay reads CSV rows `tick,symbol,name,open,high,low,last` (header required).
// Consecutive rows sharing a tick id form one poll. Empty numeric cells are missing.
func NewReplay(r io.Reader) (*Replay, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 7
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read replay header: %w", err)
	}
	if strings.ToLower(strings.TrimSpace(header[0])) != "tick" {
		return nil, fmt.Errorf("replay header must start with 'tick', got %q", header[0])
	}

	rp := &Replay{}
	current := ""
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read replay row: %w", err)
		}
		if record[0] != current || len(rp.ticks) == 0 {
			rp.ticks = append(rp.ticks, make(map[string]market.QuoteSample))
			current = record[0]
		}
		sample := market.QuoteSample{
			Symbol: record[1],
			Name:   record[2],
			Open:   cell(record[3]),
			High:   cell(record[4]),
			Low:    cell(record[5]),
			Last:   cell(record[6]),
		}
		rp.ticks[len(rp.ticks)-1][strings.ToLower(sample.Symbol)] = sample
	}
	return rp, nil
}

// Len returns the number of recorded ticks.
func (r *Replay) Len() int { return len(r.ticks) }

// Fetch returns the next recorded tick, restricted to the requested symbols.
func (r *Replay) Fetch(ctx context.Context, symbols []string) (map[string]market.QuoteSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.pos >= len(r.ticks) {
		return nil, ErrReplayExhausted
	}
	tick := r.ticks[r.pos]
	r.pos++

	out := make(map[string]market.QuoteSample, len(symbols))
	for _, sym := range symbols {
		if sample, ok := tick[strings.ToLower(sym)]; ok {
			sample.Symbol = sym
			out[sym] = sample
		}
	}
	return out, nil
}

func cell(v string) market.Price {
	v = strings.TrimSpace(v)
	if v == "" {
		return market.Missing()
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return market.Missing()
	}
	return market.Some(f)
}

var _ QuoteSource = (*Replay)(nil)
