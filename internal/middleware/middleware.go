package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/Niiaks/Ledgerly/internal/server"
)

type Middlewares struct {
	Global          *Global
	ContextEnhancer *ContextEnhancer
	Tracing         *Tracing
	// PayoutRunLimit throttles manual payout runs per seller in the route.
	PayoutRunLimit func(http.Handler) http.Handler
}

func NewMiddlewares(s *server.Server, limiter RateLimiter) *Middlewares {
	var nrApp *newrelic.Application

	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobal(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracing(nrApp),
		PayoutRunLimit: RateLimit(limiter, "payout-run",
			s.Config.Payout.RunRateLimit, s.Config.Payout.RunRateLimitEvery,
			func(r *http.Request) string { return chi.URLParam(r, "sellerID") }),
	}
}
