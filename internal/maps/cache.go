// README: Redis cache in front of the distance provider. Keys round
// coordinates to ~100m so nearby pickups share an entry.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"vahan/internal/types"
)

const cacheTTL = 24 * time.Hour

type Estimator interface {
	Estimate(ctx context.Context, pickup, destination types.Point) (km float64, duration time.Duration, degraded bool, err error)
}

// CachedDistance wraps an Estimator with a Redis lookaside cache. Degraded
// fallback estimates are never cached; the next request retries the API.
// Cache errors are logged and treated as misses.
type CachedDistance struct {
	next  Estimator
	redis *redis.Client
	log   *slog.Logger
}

func NewCachedDistance(next Estimator, client *redis.Client, log *slog.Logger) *CachedDistance {
	if log == nil {
		log = slog.Default()
	}
	return &CachedDistance{next: next, redis: client, log: log}
}

type cachedEstimate struct {
	Km           float64 `json:"km"`
	DurationSecs int64   `json:"duration_secs"`
}

func cacheKey(pickup, destination types.Point) string {
	return fmt.Sprintf("distance:%.3f,%.3f:%.3f,%.3f",
		pickup.Lat, pickup.Lng, destination.Lat, destination.Lng)
}

func (c *CachedDistance) Estimate(ctx context.Context, pickup, destination types.Point) (float64, time.Duration, bool, error) {
	key := cacheKey(pickup, destination)
	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var e cachedEstimate
		if jerr := json.Unmarshal(raw, &e); jerr == nil {
			return e.Km, time.Duration(e.DurationSecs) * time.Second, false, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("distance cache read failed", "err", err)
	}

	km, duration, degraded, err := c.next.Estimate(ctx, pickup, destination)
	if err != nil || degraded {
		return km, duration, degraded, err
	}

	raw, err := json.Marshal(cachedEstimate{Km: km, DurationSecs: int64(duration / time.Second)})
	if err == nil {
		if serr := c.redis.Set(ctx, key, raw, cacheTTL).Err(); serr != nil {
			c.log.Warn("distance cache write failed", "err", serr)
		}
	}
	return km, duration, false, nil
}
