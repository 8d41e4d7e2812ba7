// README: Snapshot cache backed by Redis; falls through to the wrapped source on any miss.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const snapshotKey = "campusride:catalog:snapshot"

var snapshotCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusride_snapshot_cache_lookups_total",
	Help: "Snapshot cache lookups by outcome (hit, miss, error)",
}, []string{"outcome"})

type CachedSource struct {
	next  Source
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedSource(next Source, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedSource{next: next, redis: rdb, ttl: ttl, log: log}
}

// Load serves the cached snapshot when present. Redis failures are logged and
// never fail the load; the underlying source is authoritative.
func (c *CachedSource) Load(ctx context.Context) (Snapshot, error) {
	if c.redis == nil || c.ttl <= 0 {
		return c.next.Load(ctx)
	}

	raw, err := c.redis.Get(ctx, snapshotKey).Bytes()
	switch {
	case err == nil:
		var snap Snapshot
		uerr := json.Unmarshal(raw, &snap)
		if uerr == nil {
			snapshotCacheLookups.WithLabelValues("hit").Inc()
			return snap, nil
		}
		snapshotCacheLookups.WithLabelValues("error").Inc()
		c.log.Warn("discarding undecodable cached snapshot", zap.Error(uerr))
	case errors.Is(err, redis.Nil):
		snapshotCacheLookups.WithLabelValues("miss").Inc()
	default:
		snapshotCacheLookups.WithLabelValues("error").Inc()
		c.log.Warn("snapshot cache read failed", zap.Error(err))
	}

	snap, err := c.next.Load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if payload, err := json.Marshal(snap); err == nil {
		if err := c.redis.Set(ctx, snapshotKey, payload, c.ttl).Err(); err != nil {
			c.log.Warn("snapshot cache write failed", zap.Error(err))
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot so the next Load observes fresh writes.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, snapshotKey).Err()
}
