package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/nat12323/race-weather-tracker/internal/api/http"
	"github.com/nat12323/race-weather-tracker/internal/auth"
	"github.com/nat12323/race-weather-tracker/internal/config"
	"github.com/nat12323/race-weather-tracker/internal/geocode"
	"github.com/nat12323/race-weather-tracker/internal/race/runreg"
	"github.com/nat12323/race-weather-tracker/internal/scheduler"
	"github.com/nat12323/race-weather-tracker/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTLifetime)
	if err != nil {
		log.Fatalf("failed to init token manager: %v", err)
	}

	// Race and user persistence: Postgres when configured, in-memory otherwise.
	var (
		races store.RaceStore
		users store.UserStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pg.Close()
		races, users = pg, pg
	} else {
		log.Println("INFO: DATABASE_URL not set; using in-memory stores")
		races = store.NewMemoryRaceStore()
		users = store.NewMemoryUserStore()
	}

	// Shared HTTP client for outbound calls to the race-listing service.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	external := runreg.NewClient(httpClient, cfg.RunRegBaseURL)

	// Handler dependencies; the aggregation service is derived from the same
	// store backing the CRUD routes.
	deps := httpapi.NewDeps(races, users, tokens, external,
		cfg.ExternalCacheTTL, geocode.NewResolver(cfg.GeocoderAPIKey))

	// Scheduler keeps the external snapshot warm.
	sched := scheduler.New(deps.Service, cfg.ExternalRefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "race-weather-tracker",
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
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "race-weather-tracker",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
