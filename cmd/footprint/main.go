package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dukerupert/footprint/internal/app"
	"github.com/dukerupert/footprint/internal/database"
	"github.com/dukerupert/footprint/internal/events"
	"github.com/dukerupert/footprint/internal/footprint"
	"github.com/dukerupert/footprint/internal/logging"
	"github.com/dukerupert/footprint/internal/metrics"
	"github.com/dukerupert/footprint/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("FOOTPRINT_LOG_LEVEL"), os.Getenv("FOOTPRINT_LOG_FORMAT"))

	port := os.Getenv("FOOTPRINT_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("FOOTPRINT_DB_PATH")
	if dbPath == "" {
		dbPath = "footprint.db"
	}

	cfg, err := footprint.LoadConfig(os.Getenv("FOOTPRINT_ENGINE_CONFIG"))
	if err != nil {
		logger.Error("failed to load engine config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if seed, _ := strconv.ParseBool(os.Getenv("FOOTPRINT_SEED")); seed {
		res, err := app.Seed(db, cfg)
		if err != nil {
			logger.Error("failed to seed catalogs", "error", err)
			os.Exit(1)
		}
		logger.Info("catalogs seeded", "factors", res.Factors, "tips", res.Tips)
	}

	m := metrics.New()

	brokers := parseBrokers(os.Getenv("FOOTPRINT_KAFKA_BROKERS"))
	publisher, err := events.NewPublisher(events.Config{
		Enabled: len(brokers) > 0,
		Brokers: brokers,
		Topic:   os.Getenv("FOOTPRINT_KAFKA_TOPIC"),
	}, logger.With("component", "events"), m)
	if err != nil {
		logger.Error("failed to create snapshot publisher", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := publisher.Start(ctx); err != nil {
		logger.Error("failed to start snapshot publisher", "error", err)
		os.Exit(1)
	}

	engine := app.NewEngine(db, cfg, logger,
		footprint.WithObserver(m),
		footprint.WithObserver(publisher),
	)
	srv := server.New(db, engine, m, logger)

	// Periodic cleanup of expired rate limit windows
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	// No read or write timeout: /ws connections are long-lived.
	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("footprint listening", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := publisher.Stop(shutdownCtx); err != nil {
		logger.Error("publisher shutdown error", "error", err)
	}
}

// parseBrokers splits a comma-separated broker list, dropping blanks.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
