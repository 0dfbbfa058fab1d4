// Package redis caches computed scorecards. The cache is an accelerator
// only: a nil client is valid and turns every lookup into a miss, so the
// service degrades to recomputing from the local store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/metrics"
	"github.com/auditpulse/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// GetScorecard loads a cached scorecard into out. A nil client or any cache
// error is a miss.
func (c *Client) GetScorecard(ctx context.Context, key string, out interface{}) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, "scorecard:"+key).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("scorecard").Inc()
		return false
	}
	if err != nil {
		metrics.CacheMisses.WithLabelValues("scorecard").Inc()
		logger.Debug("Scorecard cache read failed", zap.Error(err))
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		metrics.CacheMisses.WithLabelValues("scorecard").Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues("scorecard").Inc()
	return true
}

// SetScorecard stores a computed scorecard with the configured TTL. Failures
// are logged and dropped.
func (c *Client) SetScorecard(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, "scorecard:"+key, data, c.ttl).Err(); err != nil {
		logger.Debug("Scorecard cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached scorecard. Called after any audit mutation
// or reconciliation.
func (c *Client) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, "scorecard:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		logger.Warn("Failed to iterate cache keys", zap.Error(err))
	}
}
