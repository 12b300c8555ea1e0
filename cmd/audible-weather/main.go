package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/audible-weather/internal/api/http"
	"github.com/i474232898/audible-weather/internal/config"
	"github.com/i474232898/audible-weather/internal/narration"
	"github.com/i474232898/audible-weather/internal/scheduler"
	"github.com/i474232898/audible-weather/internal/speech"
	"github.com/i474232898/audible-weather/internal/store"
	"github.com/i474232898/audible-weather/internal/weather"
	"github.com/i474232898/audible-weather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound maps and speech calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Maps provider, optionally with Google reverse geocoding.
	var maps weather.MapsProvider
	switch cfg.MapsProvider {
	case config.MapsOpenMeteo:
		maps = providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoBaseURL, cfg.ForecastDays)
	default:
		maps = providers.NewAzureMapsProvider(httpClient, cfg.AzureMapsKey, cfg.AzureMapsBaseURL, cfg.ForecastDays)
	}
	if cfg.GoogleGeocodingAPIKey != "" {
		log.Println("INFO: using Google reverse geocoding")
		maps = providers.NewGoogleReverseGeocoder(maps, cfg.GoogleGeocodingAPIKey)
	}

	player, err := speech.NewCommandPlayer(cfg.PlayerCommand)
	if err != nil {
		log.Fatalf("invalid SPEECH_PLAYER_CMD: %v", err)
	}
	tts := speech.NewAzureSpeech(httpClient, speech.Config{
		Key:          cfg.SpeechKey,
		Region:       cfg.SpeechRegion,
		Endpoint:     cfg.SpeechEndpoint,
		Voice:        cfg.SpeechVoice,
		OutputFormat: cfg.SpeechOutputFormat,
	}, player)

	// Narration journal.
	var journal interface {
		narration.Journal
		scheduler.Pruner
	}
	switch cfg.JournalDriver {
	case config.JournalSQLite:
		sqliteStore, err := store.NewSQLiteStore(cfg.JournalPath)
		if err != nil {
			log.Fatalf("failed to open narration journal: %v", err)
		}
		defer sqliteStore.Close()
		journal = sqliteStore
	default:
		journal = store.NewMemoryStore(cfg.JournalMaxRecords, cfg.JournalMaxAge)
	}

	// Core service running narrations and journaling them.
	service := narration.NewService(narration.NewNarrator(maps, tts), journal)

	// Scheduler that periodically announces the weather.
	sched := scheduler.New(cfg.Locations, cfg.AnnounceInterval, service).
		WithPruner(journal, cfg.JournalMaxAge)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Live narrations block until playback ends, hence the long write timeout.
	app := fiber.New(fiber.Config{
		AppName:               "audible-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          5 * time.Minute,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
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
			"service": "audible-weather",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, tts.ContentType())

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
