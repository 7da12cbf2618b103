// README: Booking number generation off a Redis daily counter.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const numberCounterTTL = 48 * time.Hour

// RedisNumbers issues VH-YYYYMMDD-NNNN booking numbers from a per-day INCR
// counter. When Redis is down it falls back to a random suffix, which keeps
// numbers unique at the cost of losing the daily sequence.
type RedisNumbers struct {
	redis *redis.Client
	log   *slog.Logger
}

func NewRedisNumbers(client *redis.Client, log *slog.Logger) *RedisNumbers {
	if log == nil {
		log = slog.Default()
	}
	return &RedisNumbers{redis: client, log: log}
}

func (n *RedisNumbers) Next(ctx context.Context) (string, error) {
	day := time.Now().UTC().Format("20060102")
	key := "booking:number:" + day

	seq, err := n.redis.Incr(ctx, key).Result()
	if err != nil {
		n.log.Warn("booking number counter unavailable, using random suffix", "err", err)
		var b [3]byte
		if _, rerr := rand.Read(b[:]); rerr != nil {
			return "", rerr
		}
		return fmt.Sprintf("VH-%s-R%s", day, hex.EncodeToString(b[:])), nil
	}
	if seq == 1 {
		// Best effort; an expired counter just restarts the day's sequence.
		_ = n.redis.Expire(ctx, key, numberCounterTTL).Err()
	}
	return fmt.Sprintf("VH-%s-%04d", day, seq), nil
}
