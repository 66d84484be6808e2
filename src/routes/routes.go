package routes

import (
	"github.com/gofiber/fiber/v2"

	"order-matcher/src/config"
	"order-matcher/src/handlers"
	"order-matcher/src/middleware"
)

func SetupRoutes(app *fiber.App, orderHandler *handlers.OrderHandler, cfg *config.Config) {
	serviceAvailability := middleware.NewServiceAvailability(cfg.Availability)
	app.Use(serviceAvailability.Middleware())
	orderHandler.ReportInFlight(serviceAvailability.InFlightRequests)
	app.Use(middleware.RequestLogger(cfg.Log))

	api := app.Group("/api/v1")

	if !cfg.RateLimit.Disabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
		api.Use(rateLimiter.Middleware())
	}

	api.Post("/orders", orderHandler.SubmitOrder)
	api.Get("/orders", orderHandler.GetOrders)
	api.Get("/orderbook", orderHandler.GetOrderBook)

	app.Get("/health", orderHandler.HealthCheck)
	app.Get("/metrics", orderHandler.Metrics)
}
