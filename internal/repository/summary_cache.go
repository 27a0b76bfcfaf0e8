package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/vuln-remediation/internal/aggregate"
)

// SummaryCache stores package summaries per team. Readers must re-derive Highlight
// from the current team threshold; the cached value reflects the threshold at write time.
type SummaryCache interface {
	Get(ctx context.Context, pteamID, scope string) ([]aggregate.GroupSummary, bool, error)
	Set(ctx context.Context, pteamID, scope string, summaries []aggregate.GroupSummary) error
	InvalidatePTeam(ctx context.Context, pteamID string) error
}

type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache returns a redis-backed cache, or nil when client is nil or ttl is zero.
func NewSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &redisSummaryCache{client: client, ttl: ttl}
}

func summaryHashKey(pteamID string) string {
	return "summary:pteam:" + pteamID
}

func (c *redisSummaryCache) Get(ctx context.Context, pteamID, scope string) ([]aggregate.GroupSummary, bool, error) {
	raw, err := c.client.HGet(ctx, summaryHashKey(pteamID), scope).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var summaries []aggregate.GroupSummary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		return nil, false, err
	}
	return summaries, true, nil
}

func (c *redisSummaryCache) Set(ctx context.Context, pteamID, scope string, summaries []aggregate.GroupSummary) error {
	raw, err := json.Marshal(summaries)
	if err != nil {
		return err
	}
	key := summaryHashKey(pteamID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, scope, raw)
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *redisSummaryCache) InvalidatePTeam(ctx context.Context, pteamID string) error {
	return c.client.Del(ctx, summaryHashKey(pteamID)).Err()
}
