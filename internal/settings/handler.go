package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/pkg/types"
)

type SettingsHandler struct {
	Service *SettingsService
}

func NewSettingsHandler(service *SettingsService) *SettingsHandler {
	return &SettingsHandler{
		Service: service,
	}
}

var validate = validator.New()

func (sh *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := sh.Service.Get(r.Context(), chi.URLParam(r, "sellerID"))
	if err != nil {
		middleware.WriteError(w, r, err, "Failed to load payout settings")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, s)
}

func (sh *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req types.PayoutSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode payout settings request")
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		return
	}
	if err := validate.Struct(&req); err != nil {
		middleware.WriteError(w, r, err, "Validation error")
		return
	}

	s, err := sh.Service.Update(r.Context(), chi.URLParam(r, "sellerID"), &req)
	if err != nil {
		middleware.WriteError(w, r, err, "Failed to update payout settings")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, s)
}
