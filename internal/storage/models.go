package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteRecord is one journaled board row.
type QuoteRecord struct {
	TS     time.Time
	Group  string
	Label  string
	Symbol string
	Name   string
	Last   decimal.NullDecimal
	Open   decimal.NullDecimal
	High   decimal.NullDecimal
	Low    decimal.NullDecimal
}

// AlertRecord captures a prominent alert for auditing.
type AlertRecord struct {
	ID        int64
	At        time.Time
	Group     string
	Kind      string
	Subject   string
	Side      string
	Entry     decimal.NullDecimal
	Stop      decimal.NullDecimal
	Target    decimal.NullDecimal
	Spread    decimal.NullDecimal
	ZScore    decimal.NullDecimal
	Message   string
	Channels  []string
	CreatedAt time.Time
}
