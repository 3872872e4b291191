package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/garplab/garpscan/internal/backtest"
	"github.com/garplab/garpscan/internal/scoring"
)

// Archive is the Postgres cold store: every snapshot ever produced and
// every backtest ledger, for offline analysis. It is written alongside
// the Redis hot store, never read on the scoring path.
type Archive struct {
	db *sqlx.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS garp_snapshots (
	id           BIGSERIAL PRIMARY KEY,
	symbol       TEXT        NOT NULL,
	day          DATE        NOT NULL,
	status       TEXT        NOT NULL,
	reason       TEXT        NOT NULL,
	price        DOUBLE PRECISION NOT NULL,
	payload      JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (symbol, day)
);

CREATE TABLE IF NOT EXISTS garp_backtest_trades (
	id         BIGSERIAL PRIMARY KEY,
	run_id     TEXT        NOT NULL,
	symbol     TEXT        NOT NULL,
	trade_date DATE        NOT NULL,
	action     TEXT        NOT NULL,
	price      NUMERIC     NOT NULL,
	shares     NUMERIC     NOT NULL,
	value      NUMERIC     NOT NULL,
	reason     TEXT        NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_trades_run ON garp_backtest_trades (run_id);
`

// NewArchive connects to Postgres and ensures the schema exists.
func NewArchive(ctx context.Context, dsn string) (*Archive, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	if _, err := db.ExecContext(ctx, archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// newArchiveWithDB wires an existing connection, used by tests.
func newArchiveWithDB(db *sqlx.DB) *Archive {
	return &Archive{db: db}
}

// SaveSnapshot upserts the day's snapshot document.
func (a *Archive) SaveSnapshot(ctx context.Context, card *scoring.ScoreCard) error {
	payload, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", card.Symbol, err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO garp_snapshots (symbol, day, status, reason, price, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, day) DO UPDATE
		SET status = EXCLUDED.status, reason = EXCLUDED.reason,
		    price = EXCLUDED.price, payload = EXCLUDED.payload`,
		card.Symbol, dayKey(card.GeneratedAt), string(card.Status), card.Reason, card.Price, payload)
	if err != nil {
		return fmt.Errorf("archive snapshot for %s: %w", card.Symbol, err)
	}
	return nil
}

// SaveLedger archives every trade of a backtest run under its run id.
func (a *Archive) SaveLedger(ctx context.Context, runID string, res *backtest.Result) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger archive: %w", err)
	}
	defer tx.Rollback()

	for _, tr := range res.Trades {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO garp_backtest_trades (run_id, symbol, trade_date, action, price, shares, value, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			runID, res.Symbol, tr.Date, string(tr.Action), tr.Price, tr.Shares, tr.Value, tr.Reason); err != nil {
			return fmt.Errorf("archive trade %s %s: %w", tr.Date, tr.Action, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger archive: %w", err)
	}

	log.Info().Str("run_id", runID).Str("symbol", res.Symbol).Int("trades", len(res.Trades)).
		Msg("backtest ledger archived")
	return nil
}

// StatusCounts returns how many archived snapshots carry each status for
// a symbol, a cheap sanity query for reporting.
func (a *Archive) StatusCounts(ctx context.Context, symbol string) (map[string]int, error) {
	rows, err := a.db.QueryxContext(ctx,
		`SELECT status, COUNT(*) FROM garp_snapshots WHERE symbol = $1 GROUP BY status`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query status counts for %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// Close releases the pool.
func (a *Archive) Close() error {
	return a.db.Close()
}
