package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"order-matcher/src/config"
	"order-matcher/src/models"
)

type window struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window limiter keyed by client address.
type RateLimiter struct {
	maxRequests    int
	windowDuration time.Duration
	windows        map[string]*window
	now            func() time.Time
	mu             sync.Mutex
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		maxRequests:    cfg.Max,
		windowDuration: cfg.Window,
		windows:        make(map[string]*window),
		now:            time.Now,
	}
}

func clientID(c *fiber.Ctx) string {
	if ip := c.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return c.IP()
}

func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[client]
	if !ok || now.Sub(w.start) >= rl.windowDuration {
		// edge case: a new window replaces the old one, so idle clients never accumulate
		rl.windows[client] = &window{start: now, count: 1}
		return true
	}

	if w.count >= rl.maxRequests {
		return false
	}
	w.count++
	return true
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := clientID(c)

		if !rl.Allow(client) {
			log.Warn().
				Str("client_ip", client).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("max_requests", rl.maxRequests).
				Msg("Rate limit exceeded")
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Rate limit exceeded",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		c.Set("X-RateLimit-Window", rl.windowDuration.String())

		return c.Next()
	}
}
