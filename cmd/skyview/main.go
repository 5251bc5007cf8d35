package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	httpapi "github.com/skyview/skyview-reprojection/internal/api/http"
	"github.com/skyview/skyview-reprojection/internal/config"
	"github.com/skyview/skyview-reprojection/internal/geocode"
	"github.com/skyview/skyview-reprojection/internal/metrics"
	"github.com/skyview/skyview-reprojection/internal/platesolve"
	"github.com/skyview/skyview-reprojection/internal/scheduler"
	"github.com/skyview/skyview-reprojection/internal/sky"
	"github.com/skyview/skyview-reprojection/internal/skymap"
	"github.com/skyview/skyview-reprojection/internal/store"
)

func main() {
	// Load configuration (.env included).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Object catalog, optionally extended from disk.
	catalog, err := sky.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	// Geocoding of observer places is optional.
	var places sky.Geocoder
	if gc, err := geocode.New(cfg.GeocoderAPIKey); err != nil {
		log.Printf("WARN: %v; observers must give longitude and latitude", err)
	} else {
		places = gc
	}
	resolver := sky.NewResolver(catalog, places)

	// Sky map source. The preloaded map is decoded before the server listens.
	var source sky.Source
	switch cfg.SkyMapMode {
	case config.ModePreloaded:
		source = skymap.LoadPreloaded(cfg.SkyMapPath)
	default:
		source = skymap.NewTiled(cfg.TileDir, cfg.TilePattern, cfg.TileSize)
	}
	renderer := sky.NewService(resolver, source, cfg.RenderMaxPixels)
	log.Printf("INFO: sky map mode %s, catalog of %d objects", source.Mode(), catalog.Len())

	// Shared HTTP client for outbound plate-solve calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Plate solving with resilience (backoff + circuit breaker).
	solveCfg := platesolve.Config{
		APIURL:     cfg.AstrometryAPIURL,
		DisplayURL: cfg.AstrometryDisplayURL,
		APIKey:     cfg.AstrometryAPIKey,
	}
	if !solveCfg.Configured() {
		log.Println("WARN: ASTROMETRY_API_KEY is not set; uploads will fail until it is configured")
	}
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	solver := platesolve.NewService(platesolve.NewClient(httpClient, solveCfg), memStore)

	// Scheduler that periodically polls pending submissions.
	var refresher scheduler.Refresher
	if solveCfg.Configured() {
		refresher = solver
	}
	sched := scheduler.New(refresher, cfg.PollInterval, cfg.HTTPTimeout)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "skyview",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		BodyLimit:             40 << 20,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		skymapState := "ready"
		if err := renderer.SourceReady(); err != nil {
			skymapState = "unavailable"
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "skyview",
			"skymap":  skymapState,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, renderer, solver)

	// Frontend.
	app.Static("/", cfg.StaticDir)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
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
