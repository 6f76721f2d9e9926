package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS quote_samples (
        ts         TIMESTAMPTZ NOT NULL,
        grp        TEXT        NOT NULL,
        label      TEXT        NOT NULL,
        symbol     TEXT        NOT NULL,
        name       TEXT        NOT NULL DEFAULT '',
        last_px    NUMERIC,
        open_px    NUMERIC,
        high_px    NUMERIC,
        low_px     NUMERIC,
        PRIMARY KEY (ts, grp, label)
    );
    CREATE TABLE IF NOT EXISTS signal_alerts (
        id         BIGSERIAL PRIMARY KEY,
        alert_ts   TIMESTAMPTZ NOT NULL,
        grp        TEXT        NOT NULL,
        kind       TEXT        NOT NULL,
        subject    TEXT        NOT NULL,
        side       TEXT        NOT NULL,
        entry_px   NUMERIC,
        stop_px    NUMERIC,
        target_px  NUMERIC,
        spread     NUMERIC,
        zscore     NUMERIC,
        message    TEXT        NOT NULL DEFAULT '',
        channels   TEXT[]      NOT NULL DEFAULT '{}',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	insertQuoteSQL = `INSERT INTO quote_samples (
        ts, grp, label, symbol, name, last_px, open_px, high_px, low_px
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    ON CONFLICT (ts, grp, label) DO UPDATE
    SET last_px = EXCLUDED.last_px,
        open_px = EXCLUDED.open_px,
        high_px = EXCLUDED.high_px,
        low_px  = EXCLUDED.low_px;`

	listQuotesBetweenSQL = `SELECT
        ts, grp, label, symbol, name,
        last_px::text, open_px::text, high_px::text, low_px::text
    FROM quote_samples
    WHERE grp = $1
      AND label = $2
      AND ts >= $3
      AND ts < $4
    ORDER BY ts;`

	insertAlertSQL = `INSERT INTO signal_alerts (
        alert_ts, grp, kind, subject, side, entry_px, stop_px, target_px, spread, zscore, message, channels
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
    )
    RETURNING id, created_at;`

	listRecentAlertsSQL = `SELECT
        id, alert_ts, grp, kind, subject, side,
        entry_px::text, stop_px::text, target_px::text, spread::text, zscore::text,
        message, channels, created_at
    FROM signal_alerts
    ORDER BY alert_ts DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM signal_alerts WHERE alert_ts < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// QuoteStore journals board rows.
type QuoteStore interface {
	InsertQuotes(ctx context.Context, records []QuoteRecord) error
	ListQuotesBetween(ctx context.Context, group, label string, from, to time.Time) ([]QuoteRecord, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to the quote and alert journal.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// LockKey derives a stable advisory lock key for an instrument group.
func LockKey(group string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("futureswatch:" + group))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// EnsureSchema creates the journal tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertQuotes writes one tick's rows in a single batch.
func (s *Store) InsertQuotes(ctx context.Context, records []QuoteRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insertQuoteSQL,
			r.TS, r.Group, r.Label, r.Symbol, r.Name,
			numericArg(r.Last), numericArg(r.Open), numericArg(r.High), numericArg(r.Low),
		)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert quotes: %w", err)
	}
	return nil
}

// ListQuotesBetween lists one instrument's rows within a time window.
func (s *Store) ListQuotesBetween(ctx context.Context, group, label string, from, to time.Time) ([]QuoteRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listQuotesBetweenSQL, group, label, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list quotes between: %w", queryErr)
	}
	defer rows.Close()

	records := make([]QuoteRecord, 0)
	for rows.Next() {
		var (
			rec                   QuoteRecord
			last, open, high, low sql.NullString
		)
		if err := rows.Scan(&rec.TS, &rec.Group, &rec.Label, &rec.Symbol, &rec.Name, &last, &open, &high, &low); err != nil {
			return nil, err
		}
		if rec.Last, err = parseNumeric(last); err != nil {
			return nil, fmt.Errorf("parse last: %w", err)
		}
		if rec.Open, err = parseNumeric(open); err != nil {
			return nil, fmt.Errorf("parse open: %w", err)
		}
		if rec.High, err = parseNumeric(high); err != nil {
			return nil, fmt.Errorf("parse high: %w", err)
		}
		if rec.Low, err = parseNumeric(low); err != nil {
			return nil, fmt.Errorf("parse low: %w", err)
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	channels := alert.Channels
	if channels == nil {
		channels = []string{}
	}
	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.At,
		alert.Group,
		alert.Kind,
		alert.Subject,
		alert.Side,
		numericArg(alert.Entry),
		numericArg(alert.Stop),
		numericArg(alert.Target),
		numericArg(alert.Spread),
		numericArg(alert.ZScore),
		alert.Message,
		channels,
	)

	rec := alert
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var (
			rec                                 AlertRecord
			entry, stop, target, spread, zscore sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.At,
			&rec.Group,
			&rec.Kind,
			&rec.Subject,
			&rec.Side,
			&entry,
			&stop,
			&target,
			&spread,
			&zscore,
			&rec.Message,
			&rec.Channels,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		for _, f := range []struct {
			src sql.NullString
			dst *decimal.NullDecimal
		}{{entry, &rec.Entry}, {stop, &rec.Stop}, {target, &rec.Target}, {spread, &rec.Spread}, {zscore, &rec.ZScore}} {
			v, convErr := parseNumeric(f.src)
			if convErr != nil {
				return nil, fmt.Errorf("parse alert numeric: %w", convErr)
			}
			*f.dst = v
		}

		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore deletes alerts whose alert time precedes olderThan.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func numericArg(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func parseNumeric(v sql.NullString) (decimal.NullDecimal, error) {
	if !v.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
