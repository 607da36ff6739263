package payout

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Niiaks/Ledgerly/internal/middleware"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type PayoutHandler struct {
	service *Service
}

func NewPayoutHandler(service *Service) *PayoutHandler {
	return &PayoutHandler{
		service: service,
	}
}

func (ph *PayoutHandler) RunPayouts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := chi.URLParam(r, "sellerID")

	logger := middleware.GetLogger(ctx)
	logger.Info().Str("seller_id", sellerID).Msg("Received request to run payouts")
	middleware.AddTraceAttribute(ctx, "seller.id", sellerID)

	plan, err := ph.service.Run(ctx, sellerID)
	if err != nil {
		middleware.WriteError(w, r, err, "failed to run payouts")
		return
	}

	middleware.AddTraceAttribute(ctx, "payout.count", len(plan.Payouts))

	status := http.StatusOK
	if len(plan.Payouts) > 0 {
		status = http.StatusCreated
	}
	middleware.WriteJSON(w, status, plan)
}

func (ph *PayoutHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := chi.URLParam(r, "sellerID")

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	payouts, err := ph.service.List(ctx, sellerID, limit)
	if err != nil {
		middleware.WriteError(w, r, err, "failed to list payouts")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"payouts": payouts})
}
