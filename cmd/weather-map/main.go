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

	httpapi "github.com/i474232898/weather-map/internal/api/http"
	"github.com/i474232898/weather-map/internal/catalog"
	"github.com/i474232898/weather-map/internal/config"
	"github.com/i474232898/weather-map/internal/render"
	"github.com/i474232898/weather-map/internal/scheduler"
	"github.com/i474232898/weather-map/internal/store"
	"github.com/i474232898/weather-map/internal/weather"
	"github.com/i474232898/weather-map/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound catalog and provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var geocoder catalog.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = catalog.NewGoogleGeocoder(cfg.GeocoderAPIKey, cfg.GeocoderCountry)
	}
	loader := catalog.NewLoader(cfg.CatalogSource, httpClient, geocoder)

	provider, err := providers.New(cfg.Provider, httpClient, providers.Keys{
		OpenWeather: cfg.OpenWeatherAPIKey,
		WeatherAPI:  cfg.WeatherAPIKey,
	})
	if err != nil {
		log.Fatalf("failed to create weather provider: %v", err)
	}
	fetcher := weather.NewFetcher(provider, weather.BatchPolicy(cfg.FetchPolicy))

	// The marker layer is the map surface the session draws on.
	layer := store.NewMemoryLayer()
	session := render.NewSession(layer, loader, fetcher)

	// Scheduler that periodically redraws the active condition.
	sched := scheduler.New(session, cfg.RefreshInterval, 2*cfg.HTTPTimeout)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-map",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.HTTPTimeout + 5*time.Second,
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
			"status":   "ok",
			"service":  "weather-map",
			"provider": provider.Name(),
			"policy":   fetcher.Policy(),
		})
	})

	page := httpapi.NewPage(cfg.Map, render.Condition(cfg.DefaultCondition))
	httpapi.RegisterRoutes(app, session, loader, page)

	go func() {
		log.Printf("INFO: listening on :%s (provider %s)", cfg.Port, provider.Name())
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
