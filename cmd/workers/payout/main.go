package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Niiaks/Ledgerly/internal/clock"
	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/database"
	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/logger"
	"github.com/Niiaks/Ledgerly/internal/payout"
	"github.com/Niiaks/Ledgerly/internal/redis"
	"github.com/Niiaks/Ledgerly/internal/scheduler"
	"github.com/Niiaks/Ledgerly/internal/settings"
	"github.com/Niiaks/Ledgerly/internal/transaction"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.New(cfg.Observability)
	defer loggerService.Shutdown()
	log := logger.ForWorker(logger.NewLoggerWithService(cfg.Observability, loggerService), "payout")

	log.Info().Str("schedule", cfg.Payout.WorkerSchedule).Msg("Starting Payout Worker...")

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

	schedule, err := fee.ScheduleFromConfig(&cfg.Fees)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid fee schedule")
	}
	location, err := cfg.Payout.TimeLocation()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid payout location")
	}

	journal := transaction.NewTransactionRepository(db.Pool)
	store := ledger.NewStore(journal)
	service := payout.NewService(
		store,
		settings.NewSettingsService(settings.NewSettingsRepository(db.Pool), &cfg.Payout),
		rdb,
		payout.NewBatcher(fee.NewModel(schedule), cfg.Payout.ThresholdFloor, location, log),
		payout.NewPayoutRepository(db.Pool),
		clock.System{},
		cfg.Payout.LockTTL,
	)

	job := scheduler.NewPayoutRunJob(scheduler.NewLedgerRefreshJob(journal, store, log), service, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.Payout.WorkerSchedule, job); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule payout run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down Payout Worker...")
	cancel()
	sched.Stop()

	log.Info().Msg("Payout Worker shutdown complete")
}
