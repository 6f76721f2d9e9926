package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"futureswatch/internal/engine"
	"futureswatch/internal/service"
)

// BoardStatus is the status line context around a rendered board.
type BoardStatus struct {
	SessionOpen bool
	Interval    time.Duration
}

// Snapshot performs one tick against the live source and prints the board.
func (a *App) Snapshot(ctx context.Context) error {
	clock, err := a.newSession()
	if err != nil {
		return err
	}
	eng, st, err := a.newEngine(a.newSource(), nil)
	if err != nil {
		return err
	}

	svc := service.New(a.Config, nil, eng, st, nil, nil, nil, a.Logger)
	now := time.Now()
	open := clock.IsOpen(now)
	board, err := svc.ProcessTick(ctx, now, open)
	if err != nil {
		return err
	}
	if board == nil {
		return ErrGroupLocked
	}

	status := BoardStatus{SessionOpen: open, Interval: a.Config.Scheduler.SlowInterval}
	if status.SessionOpen {
		status.Interval = a.Config.Scheduler.FastInterval
	}
	return RenderBoard(os.Stdout, board, status)
}

// RenderBoard writes the quote table, spread table and breakout panel.
func RenderBoard(w io.Writer, board *engine.Board, status BoardStatus) error {
	session := "closed"
	if status.SessionOpen {
		session = "open"
	}
	fmt.Fprintf(w, "%s  group=%s  session=%s  refresh=%s\n\n",
		board.Time.Format("2006-01-02 15:04:05"), board.Group, session, status.Interval)

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Label\tSymbol\tName\tLast\tOpen\tHigh\tLow")
	for _, row := range board.Rows {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Label,
			row.Symbol,
			sanitizeInline(orDash(row.Name)),
			row.Last.Format(2),
			row.Open.Format(2),
			row.High.Format(2),
			row.Low.Format(2),
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	writer = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Spread\tValue\tZ\tStatus\tSamples")
	for _, sp := range board.Spreads {
		state := string(sp.Status)
		if sp.Polarity != "" {
			state += " " + string(sp.Polarity)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\n", sp.Def.Name, sp.Value.Format(2), sp.Z.Format(2), state, sp.Samples)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	b := board.Breakout
	fmt.Fprintf(w, "Breakout %s%s @ %s\n", board.Focus, board.Group, board.FocusPrice.Format(2))
	if !b.Signal {
		fmt.Fprintf(w, "  no signal (%s) %s\n", b.Reason, b.Detail)
	} else {
		fmt.Fprintf(w, "  %s entry=%.2f stop=%.2f target=%s level=%.2f vol=%s\n",
			b.Direction, b.Entry, b.Stop, b.Target.Format(2), b.Level, b.Volatility.Format(2))
		fmt.Fprintf(w, "  %s\n", b.Rationale)
	}

	for _, alert := range board.Alerts {
		marker := "  "
		if alert.Prominent() {
			marker = "! "
		}
		fmt.Fprintf(w, "%s%s\n", marker, alert.Message)
	}
	return nil
}

// Alerts prints recently journaled alerts.
func (a *App) Alerts(ctx context.Context, opts AlertsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if opts.PruneOlderThan > 0 {
		cutoff := time.Now().UTC().Add(-opts.PruneOlderThan)
		if err := store.DeleteAlertsBefore(ctx, cutoff); err != nil {
			return err
		}
		a.Logger.Info().Time("cutoff", cutoff).Msg("pruned journaled alerts")
	}

	alerts, err := store.ListRecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tGroup\tKind\tSubject\tSide\tEntry\tStop\tTarget\tSpread\tZ\tMessage")
	for _, alert := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			alert.At.UTC().Format(time.RFC3339),
			alert.Group,
			alert.Kind,
			alert.Subject,
			alert.Side,
			formatDecimal(alert.Entry, 2),
			formatDecimal(alert.Stop, 2),
			formatDecimal(alert.Target, 2),
			formatDecimal(alert.Spread, 2),
			formatDecimal(alert.ZScore, 2),
			sanitizeInline(alert.Message),
		)
	}

	return writer.Flush()
}

func formatDecimal(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(places)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
