package middleware

import (
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"order-matcher/src/config"
	"order-matcher/src/models"
)

// ServiceAvailability rejects requests with 503 while in maintenance mode or
// when too many requests are in flight. /health is always served.
type ServiceAvailability struct {
	maintenanceMode       atomic.Bool
	maxConcurrentRequests int64
	inFlightRequests      atomic.Int64
}

func NewServiceAvailability(cfg config.AvailabilityConfig) *ServiceAvailability {
	sa := &ServiceAvailability{
		maxConcurrentRequests: cfg.MaxConcurrentRequests,
	}

	if cfg.MaintenanceMode {
		sa.setMaintenanceMode(true)
	}
	if cfg.MaxConcurrentRequests > 0 {
		log.Info().
			Int64("max_concurrent_requests", cfg.MaxConcurrentRequests).
			Msg("Server overload detection enabled")
	}

	return sa
}

func (sa *ServiceAvailability) setMaintenanceMode(enabled bool) {
	sa.maintenanceMode.Store(enabled)
	if enabled {
		log.Warn().Msg("Service maintenance mode enabled")
	} else {
		log.Info().Msg("Service maintenance mode disabled")
	}
}

func (sa *ServiceAvailability) isMaintenanceMode() bool {
	return sa.maintenanceMode.Load()
}

func (sa *ServiceAvailability) InFlightRequests() int64 {
	return sa.inFlightRequests.Load()
}

func (sa *ServiceAvailability) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		if sa.isMaintenanceMode() {
			log.Warn().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("Request rejected: service in maintenance mode")
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Service unavailable: maintenance",
			})
		}

		inFlight := sa.inFlightRequests.Add(1)
		defer sa.inFlightRequests.Add(-1)

		if sa.maxConcurrentRequests > 0 && inFlight > sa.maxConcurrentRequests {
			log.Warn().
				Str("path", c.Path()).
				Int64("in_flight", inFlight-1).
				Int64("max_requests", sa.maxConcurrentRequests).
				Msg("Request rejected: server overload")
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Service unavailable: overloaded",
			})
		}

		return c.Next()
	}
}
