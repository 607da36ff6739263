package dashboard

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/internal/summary"
)

const defaultTopListings = 5

type DashboardHandler struct {
	service *DashboardService
}

func NewDashboardHandler(service *DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (dh *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := summary.ParseTimeFilter(r.URL.Query().Get("range"))
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dh.service.Summary(r.Context(), chi.URLParam(r, "sellerID"), filter))
}

func (dh *DashboardHandler) GetProjection(w http.ResponseWriter, r *http.Request) {
	p, err := dh.service.Projection(r.Context(), chi.URLParam(r, "sellerID"), r.URL.Query().Get("listing_id"))
	if err != nil {
		middleware.WriteError(w, r, err, "Failed to project earnings")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

func (dh *DashboardHandler) GetListingPerformance(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopListings
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	ranked, err := dh.service.TopListings(r.Context(), chi.URLParam(r, "sellerID"), limit)
	if err != nil {
		middleware.WriteError(w, r, err, "Failed to rank listings")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"listings": ranked})
}
