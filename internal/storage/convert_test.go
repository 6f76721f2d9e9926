package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"futureswatch/internal/debounce"
	"futureswatch/internal/engine"
	"futureswatch/internal/market"
	"futureswatch/internal/signal"
)

func TestQuoteRecordsKeepMissingAsNull(t *testing.T) {
	board := &engine.Board{
		Time:  time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
		Group: "2605",
		Rows: []market.Row{
			{Label: "Y", Symbol: "nf_y2605", Last: market.Some(8000.5)},
			{Label: "P", Symbol: "nf_p2605"},
		},
	}
	records := QuoteRecords(board)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].Last.Valid || records[0].Last.Decimal.String() != "8000.5" {
		t.Fatalf("unexpected last: %+v", records[0].Last)
	}
	if records[1].Last.Valid {
		t.Fatal("missing price must be stored as NULL, never zero")
	}
}

func TestAlertFromEngine(t *testing.T) {
	res := signal.BreakoutResult{Signal: true, Direction: market.Short, Entry: 95, Stop: 99, Target: market.Missing()}
	rec := AlertFromEngine(engine.Alert{
		Kind:     engine.KindBreakout,
		Key:      debounce.Key{Group: "2609", Subject: "P", Side: "SHORT"},
		At:       time.Unix(1_700_000_000, 0),
		Breakout: &res,
		Message:  "short",
	}, []string{"telegram"})

	if rec.Kind != "breakout" || rec.Side != "SHORT" || rec.Group != "2609" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.Entry.Valid || rec.Entry.Decimal.String() != "95" {
		t.Fatalf("unexpected entry %+v", rec.Entry)
	}
	if rec.Target.Valid {
		t.Fatal("undefined target must stay NULL")
	}
}

func TestStoreWithoutPool(t *testing.T) {
	var s *Store
	if err := s.InsertQuotes(context.Background(), []QuoteRecord{{}}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewStore(nil).ListRecentAlerts(context.Background(), 5); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLockKeyStablePerGroup(t *testing.T) {
	if LockKey("2605") != LockKey("2605") {
		t.Fatal("lock key must be deterministic")
	}
	if LockKey("2605") == LockKey("2609") {
		t.Fatal("groups should not share a lock key")
	}
	if LockKey("2605") < 0 {
		t.Fatal("lock key should be non-negative")
	}
}

func TestPruneUsesAlertTime(t *testing.T) {
	// Replayed alerts carry recorded times, so pruning must follow alert_ts
	// rather than the insertion time.
	if !strings.Contains(deleteAlertsBeforeSQL, "alert_ts < $1") {
		t.Fatalf("prune should filter on alert_ts: %s", deleteAlertsBeforeSQL)
	}
	if !strings.Contains(listRecentAlertsSQL, "ORDER BY alert_ts") {
		t.Fatalf("listing and pruning should share the alert_ts column: %s", listRecentAlertsSQL)
	}
}
