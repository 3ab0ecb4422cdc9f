package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/config"
)

var Module = fx.Module("rate.limit",
	fx.Provide(newRedisClient),
	fx.Provide(NewTokenBucket),
	fx.Provide(newPromptLimiter),
)

func newRedisClient(cfg config.Config) *redis.Client {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimit.RedisAddr,
		Password: cfg.RateLimit.RedisPassword,
		DB:       cfg.RateLimit.RedisDB,
	})
}

func newPromptLimiter(bucket *TokenBucket, cfg config.Config) PromptLimiter {
	return NewPromptLimiter(bucket, cfg.RateLimit)
}
