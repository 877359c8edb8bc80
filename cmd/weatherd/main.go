package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	httpapi "github.com/and3rn3t/weather-app-sub004/internal/api/http"
	"github.com/and3rn3t/weather-app-sub004/internal/cache"
	"github.com/and3rn3t/weather-app-sub004/internal/config"
	"github.com/and3rn3t/weather-app-sub004/internal/geocode"
	"github.com/and3rn3t/weather-app-sub004/internal/logging"
	"github.com/and3rn3t/weather-app-sub004/internal/scheduler"
	"github.com/and3rn3t/weather-app-sub004/internal/weather"
	"github.com/and3rn3t/weather-app-sub004/internal/weather/providers"
)

func main() {
	// Load configuration (reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log, err := logging.Init(logging.Options{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		logrus.Fatalf("failed to init logging: %v", err)
	}

	// Two-tier weather cache, constructed once and handed to collaborators.
	weatherCache, err := cache.New(cache.Config{
		Dir:           cfg.CacheDir,
		MemoryEntries: cfg.CacheMemoryEntries,
		DiskBudget:    cfg.CacheDiskBudget,
		StaleAfter:    cfg.CacheStaleAfter,
		ExpireAfter:   cfg.CacheExpireAfter,
		Logger:        log,
	})
	if err != nil {
		log.Fatalf("failed to init cache: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	service := weather.NewService(
		weatherCache,
		providers.NewOpenMeteoProvider(httpClient),
		providers.NewRainViewerProvider(httpClient),
		log,
	)

	resolver := geocode.NewGoogleResolver(cfg.GeocoderAPIKey)

	// Scheduler keeping tracked locations warm.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, service, log)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weatherd",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weatherd",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, resolver)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}
