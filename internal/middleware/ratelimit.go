package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bfc-aero/charter-leads-api/internal/service"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
	"github.com/bfc-aero/charter-leads-api/pkg/response"
)

// RateLimiter applies fixed-window per-IP limits. Counters live in Redis so
// replicas share one window; without Redis an in-process fallback still
// protects a single instance.
type RateLimiter struct {
	client  *redis.Client
	metrics *service.MetricsService
	logger  *zap.Logger

	mu      sync.Mutex
	windows map[string]*localWindow
}

type localWindow struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter constructs a RateLimiter. client may be nil.
func NewRateLimiter(client *redis.Client, metrics *service.MetricsService, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		client:  client,
		metrics: metrics,
		logger:  logger,
		windows: make(map[string]*localWindow),
	}
}

// Limit returns middleware enforcing at most limit requests per window for
// the named scope, keyed by client IP.
func (r *RateLimiter) Limit(scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", scope, c.ClientIP())
		count, err := r.take(c, key, window)
		if err != nil {
			// a broken limiter store must not take the API down with it
			r.logger.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		if count > limit {
			if r.metrics != nil {
				r.metrics.ObserveRateLimited(scope)
			}
			response.Error(c, appErrors.Clone(appErrors.ErrRateLimited, "Too many requests. Please try again later."))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) take(c *gin.Context, key string, window time.Duration) (int, error) {
	if r.client == nil {
		return r.takeLocal(key, window), nil
	}

	ctx := c.Request.Context()
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

func (r *RateLimiter) takeLocal(key string, window time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	win, ok := r.windows[key]
	if !ok || now.After(win.resetAt) {
		win = &localWindow{resetAt: now.Add(window)}
		r.windows[key] = win
	}
	win.count++
	return win.count
}
