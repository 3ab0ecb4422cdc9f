package ratelimit

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"

	"github.com/intellpharma/pharmastock/internal/config"
)

// PromptLimiter gates per-user AI prompt calls.
type PromptLimiter interface {
	Allow(ctx context.Context, userID snowflake.ID) (*Result, error)
}

type promptLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewPromptLimiter(bucket *TokenBucket, cfg config.RateLimitConfig) PromptLimiter {
	if bucket == nil || !cfg.Enabled {
		return allowAll{}
	}
	rate := cfg.PromptRate
	if rate <= 0 {
		rate = 0.5
	}
	burst := cfg.PromptBurst
	if burst <= 0 {
		burst = 5
	}
	return &promptLimiter{bucket: bucket, rate: rate, burst: burst}
}

func (l *promptLimiter) Allow(ctx context.Context, userID snowflake.ID) (*Result, error) {
	key := fmt.Sprintf("ratelimit:ai:prompt:%s", userID)
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}

// allowAll is used when no Redis is configured. Single-node installs
// run without a shared limiter.
type allowAll struct{}

func (allowAll) Allow(ctx context.Context, userID snowflake.ID) (*Result, error) {
	return &Result{Allowed: true}, nil
}
