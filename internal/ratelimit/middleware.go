package ratelimit

import (
	"fmt"
	"net/http"

	"referral-server/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Middleware limits requests per authenticated account. It must run after
// the JWT middleware; requests without an account pass through. Redis errors
// fail open.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rawAccountID, ok := c.Get("Account-ID")
		if !ok {
			c.Next()
			return
		}
		accountID, err := uuid.Parse(fmt.Sprint(rawAccountID))
		if err != nil {
			c.Next()
			return
		}

		result, err := s.CheckRateLimit(ctx, accountID)
		if err != nil {
			s.logger.Error(ctx, "rate limit check failed, allowing request", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))

		if !result.Allowed {
			retryAfterSeconds := (result.RetryAfterMs + 999) / 1000
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds))
			s.logger.Warn(observability.WithFields(ctx,
				observability.Field{Key: "account_id", Value: accountID.String()},
				observability.Field{Key: "retry_after_ms", Value: result.RetryAfterMs},
			), "rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"code":        "RATE_LIMIT_EXCEEDED",
				"limit":       result.Limit,
				"retry_after": retryAfterSeconds,
				"reset_at":    result.ResetAt.Unix(),
			})
			return
		}

		c.Next()
	}
}
