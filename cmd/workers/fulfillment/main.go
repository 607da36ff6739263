package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/database"
	"github.com/Niiaks/Ledgerly/internal/kafka"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/logger"
	"github.com/Niiaks/Ledgerly/internal/redis"
	"github.com/Niiaks/Ledgerly/internal/transaction"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run returns once the worker has shut down and every deferred close has
// run. The error is the one that stopped the consumer, if any.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.New(cfg.Observability)
	defer loggerService.Shutdown()
	log := logger.ForWorker(logger.NewLoggerWithService(cfg.Observability, loggerService), "fulfillment")

	log.Info().Msg("Starting Fulfillment Worker...")

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	rdb, err := redis.New(&log, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis")
	}
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	journal := transaction.NewTransactionRepository(db.Pool)
	existing, err := journal.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load ledger")
	}
	store, err := ledger.Restore(existing, journal)
	if err != nil {
		log.Fatal().Err(err).Msg("ledger failed validation")
	}

	kafkaCfg := kafka.DefaultConfig(cfg.Kafka.Brokers)
	producer, err := kafka.NewProducer(kafkaCfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize kafka producer")
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(kafkaCfg, kafka.GroupFulfillmentWorker, cfg.Kafka.FulfillmentTopic, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize kafka consumer")
	}
	defer consumer.Close()
	consumer.OnFailure(producer.DeadLetter)

	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, fulfillmentHandler(store, journal, rdb, producer.DeadLetter, &log))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		log.Info().Msg("Shutting down Fulfillment Worker...")
		cancel()
		<-done
	case runErr = <-done:
		// Offsets past the failed message stay uncommitted, so a restart
		// picks it up again.
		log.Error().Err(runErr).Msg("Fulfillment consumer stopped with error")
		cancel()
	}

	log.Info().Msg("Fulfillment Worker shutdown complete")
	return runErr
}
