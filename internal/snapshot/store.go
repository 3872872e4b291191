// Package snapshot persists score cards: a Redis store for the hot
// latest-snapshot lookups the API serves, and a Postgres archive for
// historical queries and backtest ledgers.
package snapshot

import (
	"context"
	"time"

	"github.com/garplab/garpscan/internal/scoring"
)

// Store is the hot snapshot interface the pipeline and API consume.
type Store interface {
	Save(ctx context.Context, card *scoring.ScoreCard) error
	Latest(ctx context.Context, symbol string) (*scoring.ScoreCard, error)
	History(ctx context.Context, symbol string, limit int) ([]*scoring.ScoreCard, error)
	Close() error
}

// dayKey formats the date component of snapshot keys.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
