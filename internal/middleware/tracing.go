package middleware

import (
	"context"
	"net/http"

	"github.com/newrelic/go-agent/v3/integrations/nrgochi"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/Niiaks/Ledgerly/pkg/constants"
)

type Tracing struct {
	nrApp *newrelic.Application
}

func NewTracing(nrApp *newrelic.Application) *Tracing {
	return &Tracing{
		nrApp: nrApp,
	}
}

// NewRelicMiddleware starts a New Relic transaction per request, or does
// nothing when the agent is not configured.
func (t *Tracing) NewRelicMiddleware() func(http.Handler) http.Handler {
	if t.nrApp == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return nrgochi.Middleware(t.nrApp)
}

// EnhanceTracing tags the transaction with the request's correlation data.
func (t *Tracing) EnhanceTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		AddTraceAttribute(ctx, "http.real_ip", r.RemoteAddr)
		AddTraceAttribute(ctx, "http.user_agent", r.UserAgent())
		AddTraceAttribute(ctx, "request.id", GetRequestID(r))
		AddTraceAttribute(ctx, "idempotency.key", r.Header.Get(constants.IdempotencyKeyHeader))
		AddTraceAttribute(ctx, "seller.id", r.Header.Get(SellerIDHeader))

		next.ServeHTTP(w, r)
	})
}

// AddTraceAttribute records key on the New Relic transaction in ctx.
// Empty strings and contexts without a transaction are ignored, so handlers
// can call it unconditionally.
func AddTraceAttribute(ctx context.Context, key string, value any) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.AddAttribute(key, value)
	}
}
