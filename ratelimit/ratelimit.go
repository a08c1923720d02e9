// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ratelimit throttles chat posts per origin. Without a Redis URL it
// hands out a limiter that allows everything.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/constants"
)

type Limiter interface {
	// Allow records one hit for key and reports whether it is within budget.
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// New returns a Redis backed limiter when cfg.RedisURL is set, otherwise Noop.
func New(cfg cliparse.Config, logger zerolog.Logger) (Limiter, error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("chat rate limiting disabled (no REDIS_URL)")
		return Noop{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("addr", opts.Addr).Int("limit", cfg.ChatRateLimit).Msg("chat rate limiting enabled")
	return NewRedisLimiter(client, cfg.ChatRateLimit, constants.ChatRateWindow), nil
}

type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }
func (Noop) Close() error                                { return nil }

// RedisLimiter is a fixed window counter: one key per (key, window) pair.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := l.windowKey(key)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	return incr.Val() <= int64(l.limit), nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

func (l *RedisLimiter) windowKey(key string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return "heartvote:rl:" + key + ":" + strconv.FormatInt(bucket, 10)
}
