package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Niiaks/Ledgerly/internal/booking"
	"github.com/Niiaks/Ledgerly/internal/clock"
	"github.com/Niiaks/Ledgerly/internal/config"
	"github.com/Niiaks/Ledgerly/internal/dashboard"
	"github.com/Niiaks/Ledgerly/internal/database"
	"github.com/Niiaks/Ledgerly/internal/fee"
	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/listing"
	"github.com/Niiaks/Ledgerly/internal/logger"
	"github.com/Niiaks/Ledgerly/internal/payout"
	"github.com/Niiaks/Ledgerly/internal/projection"
	"github.com/Niiaks/Ledgerly/internal/redis"
	"github.com/Niiaks/Ledgerly/internal/router"
	"github.com/Niiaks/Ledgerly/internal/scheduler"
	"github.com/Niiaks/Ledgerly/internal/server"
	"github.com/Niiaks/Ledgerly/internal/settings"
	"github.com/Niiaks/Ledgerly/internal/summary"
	"github.com/Niiaks/Ledgerly/internal/transaction"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.New(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	rdb, err := redis.New(&log, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	defer rdb.Close()

	schedule, err := fee.ScheduleFromConfig(&cfg.Fees)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid fee schedule")
	}
	fees := fee.NewModel(schedule)
	location, err := cfg.Payout.TimeLocation()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid payout location")
	}
	clk := clock.System{}

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
	log.Info().Int("transactions", store.Snapshot().Len()).Msg("Ledger restored")

	srv := server.NewServer(cfg, &log, loggerService, db, rdb)

	settingsService := settings.NewSettingsService(settings.NewSettingsRepository(db.Pool), &cfg.Payout)
	payoutService := payout.NewService(
		store,
		settingsService,
		rdb,
		payout.NewBatcher(fees, cfg.Payout.ThresholdFloor, location, log),
		payout.NewPayoutRepository(db.Pool),
		clk,
		cfg.Payout.LockTTL,
	)
	transactionService := transaction.NewTransactionService(store, rdb, fees, clk)
	dashboardService := dashboard.NewDashboardService(
		store,
		listing.NewListingRepository(db.Pool),
		booking.NewBookingRepository(db.Pool),
		summary.NewCalculator(clk, cfg.Summary.MonthlyTarget),
		projection.NewEngine(fees),
		clk,
	)

	handlers := &router.Handlers{
		Transaction: transaction.NewTransactionHandler(transactionService),
		Payout:      payout.NewPayoutHandler(payoutService),
		Settings:    settings.NewSettingsHandler(settingsService),
		Dashboard:   dashboard.NewDashboardHandler(dashboardService),
	}

	r := router.NewRouter(srv, handlers, rdb)

	srv.SetupHTTPServer(r)

	// Other processes write the same journal; keep this copy current.
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.Payout.LedgerRefresh, scheduler.NewLedgerRefreshJob(journal, store, log)); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule ledger refresh")
	}
	sched.Start(ctx)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	sched.Stop()
	cancel()

	log.Info().Msg("server stopped")
}
