// Command sweep expires stale booking holds once and exits. It is meant for
// deployments that drive the sweep from an external scheduler.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/events"
	"stayhub/internal/logging"
	"stayhub/internal/repository"
	"stayhub/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := baseLogger.With().Str("component", "sweep").Logger()

	db, err := database.Open(cfg.Database, &logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	var client *redis.Client
	if cfg.Redis.Address != "" {
		client = repository.NewRedisClient(cfg.Redis)
		defer repository.Close(client)
	}
	locker := repository.NewSweepLocker(client, &logger)

	bus := events.NewEventBus()
	for _, et := range events.BookingEventTypes {
		bus.Subscribe(et, events.LogHandler(&logger))
	}

	bookings := service.NewBookingService(db, bus, cfg.Booking, &logger)
	engine := service.NewEngine(db, bookings, locker, cfg.Booking, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Booking.SweepLockTTL)
	defer cancel()

	start := time.Now()
	n, err := engine.SweepExpiredHolds(ctx, start)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	logger.Info().Int("expired", n).Dur("took", time.Since(start)).Msg("sweep finished")
	return nil
}
