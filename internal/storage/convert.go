package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"futureswatch/internal/engine"
	"futureswatch/internal/market"
)

// QuoteRecords flattens a board into journal rows.
func QuoteRecords(board *engine.Board) []QuoteRecord {
	records := make([]QuoteRecord, 0, len(board.Rows))
	for _, row := range board.Rows {
		records = append(records, QuoteRecord{
			TS:     board.Time.UTC(),
			Group:  board.Group,
			Label:  row.Label,
			Symbol: row.Symbol,
			Name:   row.Name,
			Last:   fromPrice(row.Last),
			Open:   fromPrice(row.Open),
			High:   fromPrice(row.High),
			Low:    fromPrice(row.Low),
		})
	}
	return records
}

// AlertFromEngine converts a prominent alert into an audit record.
func AlertFromEngine(alert engine.Alert, channels []string) AlertRecord {
	rec := AlertRecord{
		At:       alert.At.UTC(),
		Group:    alert.Key.Group,
		Kind:     string(alert.Kind),
		Subject:  alert.Key.Subject,
		Side:     alert.Key.Side,
		Message:  alert.Message,
		Channels: channels,
	}
	if b := alert.Breakout; b != nil {
		rec.Entry = fromPrice(market.Some(b.Entry))
		rec.Stop = fromPrice(market.Some(b.Stop))
		rec.Target = fromPrice(b.Target)
	}
	if s := alert.Spread; s != nil {
		rec.Spread = fromPrice(s.Value)
		rec.ZScore = fromPrice(s.Z)
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	return rec
}

func fromPrice(p market.Price) decimal.NullDecimal {
	v, ok := p.Get()
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}
