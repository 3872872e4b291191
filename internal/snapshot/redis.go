package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/scoring"
)

// ErrNotFound is returned when a symbol has no stored snapshot.
var ErrNotFound = errors.New("snapshot: not found")

const (
	keyPrefix    = "garp:snapshot:"
	latestSuffix = ":latest"
	indexSuffix  = ":index"
)

// RedisStore keeps one JSON document per symbol per day plus a "latest"
// pointer and a per-symbol date index for history queries.
type RedisStore struct {
	client *redis.Client
	cfg    config.RedisConfig
}

// NewRedisStore connects and pings the snapshot store.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("snapshot store unreachable at %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, cfg: cfg}, nil
}

// Save writes the day's snapshot, repoints latest, and records the date
// in the symbol's index.
func (s *RedisStore) Save(ctx context.Context, card *scoring.ScoreCard) error {
	payload, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", card.Symbol, err)
	}

	day := dayKey(card.GeneratedAt)
	dailyKey := keyPrefix + card.Symbol + ":" + day

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, dailyKey, payload, s.cfg.TTL.Std())
	pipe.Set(ctx, keyPrefix+card.Symbol+latestSuffix, payload, s.cfg.TTL.Std())
	pipe.ZAdd(ctx, keyPrefix+card.Symbol+indexSuffix, redis.Z{
		Score:  float64(card.GeneratedAt.Unix()),
		Member: day,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store snapshot for %s: %w", card.Symbol, err)
	}

	log.Debug().Str("symbol", card.Symbol).Str("key", dailyKey).Msg("snapshot stored")
	return nil
}

// Latest fetches the most recent snapshot for a symbol.
func (s *RedisStore) Latest(ctx context.Context, symbol string) (*scoring.ScoreCard, error) {
	raw, err := s.client.Get(ctx, keyPrefix+symbol+latestSuffix).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch latest snapshot for %s: %w", symbol, err)
	}
	return decode(raw)
}

// History returns up to limit snapshots for a symbol, newest first.
func (s *RedisStore) History(ctx context.Context, symbol string, limit int) ([]*scoring.ScoreCard, error) {
	if limit <= 0 {
		limit = 30
	}
	days, err := s.client.ZRevRange(ctx, keyPrefix+symbol+indexSuffix, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot index for %s: %w", symbol, err)
	}

	out := make([]*scoring.ScoreCard, 0, len(days))
	for _, day := range days {
		raw, err := s.client.Get(ctx, keyPrefix+symbol+":"+day).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired daily key still indexed
		}
		if err != nil {
			return nil, fmt.Errorf("fetch snapshot %s/%s: %w", symbol, day, err)
		}
		card, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decode(raw []byte) (*scoring.ScoreCard, error) {
	var card scoring.ScoreCard
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if _, err := scoring.ParseStatus(string(card.Status)); err != nil {
		return nil, fmt.Errorf("stored snapshot corrupt: %w", err)
	}
	return &card, nil
}

var _ Store = (*RedisStore)(nil)
