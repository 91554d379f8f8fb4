package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carewave/opd-queue-engine/internal/queue"
)

// StatusKeyPrefix namespaces the projected read model.
const StatusKeyPrefix = "queue:status:"

// StatusReader is the slice of the engine the projector needs.
type StatusReader interface {
	MobileStatus(token int64) (queue.MobileStatus, error)
}

// StatusCache refreshes the Redis copy of every token touched by an event.
// Write failures are logged and dropped; Redis going away degrades polling,
// never queueing.
type StatusCache struct {
	rdb    *redis.Client
	reader StatusReader
	ttl    time.Duration
	log    zerolog.Logger
}

func NewStatusCache(rdb *redis.Client, reader StatusReader, ttl time.Duration, log zerolog.Logger) *StatusCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &StatusCache{rdb: rdb, reader: reader, ttl: ttl, log: log}
}

func (c *StatusCache) Publish(ev queue.Event) {
	for _, token := range affectedTokens(ev) {
		c.refresh(token)
	}
}

func (c *StatusCache) refresh(token int64) {
	ms, err := c.reader.MobileStatus(token)
	if err != nil {
		return
	}

	data, err := json.Marshal(ms)
	if err != nil {
		c.log.Error().Err(err).Int64("token", token).Msg("marshal mobile status")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("%s%d", StatusKeyPrefix, token)
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Error().Err(err).Int64("token", token).Msg("cache mobile status")
	}
}

// affectedTokens collects every token an event touches, deduplicated.
func affectedTokens(ev queue.Event) []int64 {
	seen := make(map[int64]struct{})
	var tokens []int64
	add := func(t int64) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			tokens = append(tokens, t)
		}
	}

	if ev.Appointment != nil {
		add(ev.Appointment.Token)
	}
	for _, c := range ev.Affected {
		add(c.Token)
	}
	for _, s := range ev.Shifted {
		add(s.Token)
	}
	return tokens
}
