package middleware

import (
	"context"
	"net/http"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/Niiaks/Ledgerly/internal/logger"
	"github.com/Niiaks/Ledgerly/internal/server"
)

const (
	SellerIDHeader = "X-Seller-ID"

	loggerContextKey   contextKey = "logger"
	sellerIDContextKey contextKey = "seller_id"
)

type ContextEnhancer struct {
	Server *server.Server
}

func NewContextEnhancer(srv *server.Server) *ContextEnhancer {
	return &ContextEnhancer{
		Server: srv,
	}
}

func (ce *ContextEnhancer) EnhanceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetRequestID(r)

		//enhance logger with context
		contextLogger := ce.Server.Logger.With().
			Str("request_id", requestID).
			Str("ip", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		if txn := newrelic.FromContext(r.Context()); txn != nil {
			contextLogger = logger.WithTraceContext(contextLogger, txn)
		}

		ctx := r.Context()
		if sellerID := r.Header.Get(SellerIDHeader); sellerID != "" {
			contextLogger = contextLogger.With().Str("seller_id", sellerID).Logger()
			ctx = context.WithValue(ctx, sellerIDContextKey, sellerID)
		}

		ctx = WithLogger(ctx, &contextLogger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSellerID returns the caller's seller ID set by EnhanceContext.
func GetSellerID(ctx context.Context) string {
	if sellerID, ok := ctx.Value(sellerIDContextKey).(string); ok {
		return sellerID
	}
	return ""
}

// WithLogger stores logger in ctx for GetLogger. Workers use it to carry
// their logger into services.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// GetLogger retrieves the logger from the context.
func GetLogger(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*zerolog.Logger); ok {
		return logger
	}
	logger := zerolog.Nop()
	return &logger
}
