package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"order-matcher/src/config"
	"order-matcher/src/console"
	"order-matcher/src/engine"
	"order-matcher/src/handlers"
	"order-matcher/src/logger"
	"order-matcher/src/routes"
)

func main() {
	cfg, loadErr := config.Load("")
	if loadErr != nil {
		cfg = config.Default()
	}

	consoleMode := len(os.Args) > 1 && os.Args[1] == "console"
	if consoleMode {
		// edge case: keep stdout for the console, logs go to stderr
		logger.InitLogger(cfg.Log, os.Stderr)
	} else {
		logger.InitLogger(cfg.Log, os.Stdout)
	}
	defer logger.CloseLogger()
	log := logger.GetLogger()

	if loadErr != nil {
		log.Warn().Err(loadErr).Msg("Failed to load configuration, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	book := engine.NewOrderBook()

	if consoleMode {
		if err := console.New(book, os.Stdin, os.Stdout, os.Stderr).Run(ctx); err != nil {
			log.Error().Err(err).Msg("Console input failed")
		}
		return
	}

	serve(ctx, log, cfg, book)
}

func serve(ctx context.Context, log zerolog.Logger, cfg *config.Config, book *engine.OrderBook) {
	log.Info().Msg("Initializing Order Matcher")

	orderHandler := handlers.NewOrderHandler(book, cfg)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	routes.SetupRoutes(app, orderHandler, cfg)

	port := ":" + cfg.Server.Port
	serverError := make(chan error, 1)

	go func() {
		if err := app.Listen(port); err != nil {
			serverError <- err
		}
	}()

	log.Info().
		Str("port", port).
		Strs("endpoints", []string{
			"POST   /api/v1/orders",
			"GET    /api/v1/orders?side=BUY|SELL",
			"GET    /api/v1/orderbook",
			"GET    /health",
			"GET    /metrics",
		}).
		Msg("Order Matcher started")

	select {
	case err := <-serverError:
		log.Fatal().
			Err(err).
			Str("port", port).
			Str("hint", "Port may be already in use. Try: PORT=3000 go run main.go").
			Msg("Server failed to start")
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		// edge case: timeout during shutdown is acceptable
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().
				Dur("timeout", cfg.Server.ShutdownTimeout).
				Msg("Timeout exceeded, shutting down...")
		} else {
			log.Error().Err(err).Msg("Error during shutdown")
		}
		return
	}
	log.Info().Msg("Shutdown complete")
}
