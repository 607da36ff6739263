package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/Niiaks/Ledgerly/internal/dashboard"
	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/internal/payout"
	"github.com/Niiaks/Ledgerly/internal/server"
	"github.com/Niiaks/Ledgerly/internal/settings"
	"github.com/Niiaks/Ledgerly/internal/transaction"
)

type Handlers struct {
	Transaction *transaction.TransactionHandler
	Payout      *payout.PayoutHandler
	Settings    *settings.SettingsHandler
	Dashboard   *dashboard.DashboardHandler
}

func NewRouter(s *server.Server, h *Handlers, limiter middleware.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	mw := middleware.NewMiddlewares(s, limiter)

	// Apply middleware in order
	r.Use(middleware.RequestID)
	r.Use(mw.Tracing.NewRelicMiddleware())
	r.Use(mw.Tracing.EnhanceTracing)
	r.Use(mw.ContextEnhancer.EnhanceContext)
	r.Use(mw.Global.RequestLogger)
	r.Use(mw.Global.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", middleware.RequestIDHeader, middleware.SellerIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", s.Health)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.Transaction.RecordTransaction)
			r.Get("/{transactionID}", h.Transaction.GetTransaction)
			r.Patch("/{transactionID}/status", h.Transaction.UpdateStatus)
		})

		r.Route("/sellers/{sellerID}", func(r chi.Router) {
			r.Get("/summary", h.Dashboard.GetSummary)
			r.Get("/projection", h.Dashboard.GetProjection)
			r.Get("/listings/performance", h.Dashboard.GetListingPerformance)

			r.Get("/payouts", h.Payout.ListPayouts)
			r.With(mw.PayoutRunLimit).Post("/payouts/run", h.Payout.RunPayouts)

			r.Get("/payout-settings", h.Settings.GetSettings)
			r.Put("/payout-settings", h.Settings.UpdateSettings)
		})
	})

	return r
}
