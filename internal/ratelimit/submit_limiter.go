package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/treadstone/maxtt-billing/internal/config"
)

const keyInvoiceSubmit = "invoice:submit:franchisee:%s"

// SubmitLimiter throttles invoice submissions per franchisee. A nil limiter
// (no Redis configured) allows everything; the lone-outlet deployment runs
// without Redis at all.
type SubmitLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewSubmitLimiter(cfg config.Config) *SubmitLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &SubmitLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    2,  // sustained submissions per second per outlet
		burst:   10, // a queue of walk-ins saved back to back
	}
}

func (l *SubmitLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *SubmitLimiter) AllowFranchisee(ctx context.Context, franchiseeID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyInvoiceSubmit, strings.TrimSpace(franchiseeID)), l.rate, l.burst)
}
