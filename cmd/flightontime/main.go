package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/flightontime/flightontime/internal/config"
	"github.com/flightontime/flightontime/internal/encoding"
	"github.com/flightontime/flightontime/internal/logger"
	"github.com/flightontime/flightontime/internal/lookup"
	"github.com/flightontime/flightontime/internal/predictor"
	"github.com/flightontime/flightontime/internal/prescriptive"
	"github.com/flightontime/flightontime/internal/scorer"
	"github.com/flightontime/flightontime/internal/server"
	"github.com/flightontime/flightontime/internal/storage"
	"github.com/flightontime/flightontime/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Load model artifacts. The encoder vocabularies are required; the
	// lookup table degrades to layered defaults when absent.
	encoders, err := encoding.Load(cfg.Model.LabelEncodersPath)
	if err != nil {
		logger.Fatal("Failed to load label encoders: %v", err)
	}
	logger.Info("Loaded encoder vocabularies for %d fields", encoders.Fields())

	table, err := lookup.Load(cfg.Model.LookupTablesPath)
	if err != nil {
		logger.Warn("Lookup tables unavailable (%v), falling back to global defaults", err)
		table = lookup.NewEmpty()
	} else {
		logger.Info("Loaded lookup tables (%d origins, %d carriers)", table.OriginCount(), table.CarrierCount())
	}

	importance, err := prescriptive.LoadImportance(cfg.Model.FeatureImportancePath)
	if err != nil {
		logger.Warn("Feature importance unavailable (%v), top factors will be empty", err)
	}

	threshold := loadThreshold(cfg.Model.ThresholdPath, cfg.Model.DefaultThreshold)
	logger.Info("Decision threshold: %.3f", threshold)

	// Initialize storage
	store, err := storage.New(cfg.Storage.DBPath, cfg.Storage.MaxRecords)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	// Initialize Telegram client
	var notifier server.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	// Initialize scoring client and pipeline
	scoringClient := scorer.NewClient(cfg.Scorer.BaseURL, cfg.Scorer.Timeout, cfg.Scorer.MaxRetries, cfg.Scorer.RetryDelayBase)
	pipeline := predictor.New(table, encoders, importance, threshold, cfg.Model.TopFactors, scoringClient)

	srv := server.New(pipeline, store, notifier, cfg.Server.MaxBatchSize)
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Serving predictions on %s", cfg.Addr())
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed: %v", err)
		}
	case <-sigChan:
		logger.Info("Shutdown signal received, cleaning up...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed: %v", err)
		}
	}

	logger.Info("Service stopped")
}

// loadThreshold reads the tuned decision threshold, falling back to the
// configured default when the artifact is absent or unreadable.
func loadThreshold(path string, fallback float64) float64 {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Threshold file unavailable (%v), using default %.3f", err, fallback)
		return fallback
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil || value <= 0 || value >= 1 {
		logger.Warn("Threshold file %s is malformed, using default %.3f", path, fallback)
		return fallback
	}
	return value
}
