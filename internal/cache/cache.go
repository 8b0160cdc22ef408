// Package cache keeps pricing snapshots in Redis, keyed by configuration version.
// A version is never rewritten, so entries need no invalidation and simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Simplici0/partpricing/internal/pricing"
)

const (
	keyPrefix  = "partpricing:snapshot:"
	defaultTTL = time.Hour
)

// SnapshotCache stores snapshots by version.
type SnapshotCache interface {
	Get(ctx context.Context, version int64) (pricing.Snapshot, bool, error)
	Set(ctx context.Context, snap pricing.Snapshot) error
}

type Config struct {
	URL          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// NewClient parses the URL, applies timeouts and pings the server.
func (c Config) NewClient(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		opts.WriteTimeout = c.WriteTimeout
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Redis is a SnapshotCache backed by a go-redis client.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func key(version int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, version)
}

func (r *Redis) Get(ctx context.Context, version int64) (pricing.Snapshot, bool, error) {
	raw, err := r.client.Get(ctx, key(version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pricing.Snapshot{}, false, nil
	}
	if err != nil {
		return pricing.Snapshot{}, false, fmt.Errorf("get cached snapshot: %w", err)
	}
	snap, err := decode(raw)
	if err != nil {
		return pricing.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (r *Redis) Set(ctx context.Context, snap pricing.Snapshot) error {
	raw, err := encode(snap)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key(snap.Version), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached snapshot: %w", err)
	}
	return nil
}

type entry struct {
	Version     int64                `json:"version"`
	TakenAt     time.Time            `json:"taken_at"`
	Bands       []pricing.MarkupBand `json:"bands"`
	Multipliers map[string]float64   `json:"multipliers"`
}

func encode(snap pricing.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(entry{
		Version:     snap.Version,
		TakenAt:     snap.TakenAt,
		Bands:       snap.Markup.Bands(),
		Multipliers: snap.Multipliers.Map(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (pricing.Snapshot, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return pricing.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	markup, err := pricing.NewMarkupTable(e.Bands)
	if err != nil {
		return pricing.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	multipliers, err := pricing.NewCategoryMultipliers(e.Multipliers)
	if err != nil {
		return pricing.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return pricing.Snapshot{
		Version:     e.Version,
		TakenAt:     e.TakenAt,
		Markup:      markup,
		Multipliers: multipliers,
	}, nil
}

// Noop never hits.
type Noop struct{}

func (Noop) Get(context.Context, int64) (pricing.Snapshot, bool, error) {
	return pricing.Snapshot{}, false, nil
}

func (Noop) Set(context.Context, pricing.Snapshot) error { return nil }
