package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"referral-server/internal/clients/redis"
	"referral-server/internal/observability"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const window = time.Minute

// slidingWindowScript trims the window, then records the request only if the
// window still has room. It replies {allowed, count, oldest score}.
var slidingWindowScript = goredis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '0', ARGV[2])
local count = redis.call('ZCARD', KEYS[1])
if count < tonumber(ARGV[3]) then
	redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
	redis.call('PEXPIRE', KEYS[1], ARGV[5])
	return {1, count + 1, '0'}
end
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
return {0, count, oldest[2] or '0'}
`)

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed      bool      `json:"allowed"`
	Limit        int       `json:"limit"`
	Remaining    int       `json:"remaining"`
	ResetAt      time.Time `json:"reset_at"`
	RetryAfterMs int       `json:"retry_after_ms,omitempty"`
}

// Service limits trust-changing requests per account with a sliding window
type Service struct {
	redis  *redis.Client
	limit  int
	logger *observability.Logger
	now    func() time.Time
}

// NewService creates a new rate limiting service. A nil or disabled Redis
// client lets every request through.
func NewService(redis *redis.Client, requestsPerMinute int, logger *observability.Logger) *Service {
	return &Service{
		redis:  redis,
		limit:  requestsPerMinute,
		logger: logger,
		now:    time.Now,
	}
}

// CheckRateLimit records one request for accountID and reports whether it fits the window
func (s *Service) CheckRateLimit(ctx context.Context, accountID uuid.UUID) (RateLimitResult, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "account_id", Value: accountID.String()},
		observability.Field{Key: "rate_limit", Value: s.limit},
	)

	now := s.now()
	if !s.redis.IsEnabled() || s.limit <= 0 {
		return RateLimitResult{Allowed: true, Limit: s.limit, Remaining: s.limit, ResetAt: now.Add(window)}, nil
	}

	// Key: rl:{account_id}, members are request ids scored by unix millis
	key := fmt.Sprintf("rl:%s", accountID.String())
	nowMs := now.UnixMilli()
	windowStartMs := now.Add(-window).UnixMilli()
	client := s.redis.GetClient()

	res, err := slidingWindowScript.Run(ctx, client, []string{key},
		nowMs,
		windowStartMs,
		s.limit,
		fmt.Sprintf("%d-%s", nowMs, uuid.NewString()),
		(2 * window).Milliseconds(),
	).Slice()
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to check rate limit window: %w", err)
	}
	if len(res) != 3 {
		return RateLimitResult{}, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)
	if allowed != 1 {
		resetAt := now.Add(window)
		if oldest, ok := res[2].(string); ok {
			if score, err := strconv.ParseFloat(oldest, 64); err == nil && score > 0 {
				resetAt = time.UnixMilli(int64(score)).Add(window)
			}
		}
		retryAfter := resetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return RateLimitResult{
			Allowed:      false,
			Limit:        s.limit,
			Remaining:    0,
			ResetAt:      resetAt,
			RetryAfterMs: int(retryAfter.Milliseconds()),
		}, nil
	}

	return RateLimitResult{
		Allowed:   true,
		Limit:     s.limit,
		Remaining: s.limit - int(count),
		ResetAt:   now.Add(window),
	}, nil
}
