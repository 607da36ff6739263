package transaction

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/pkg/constants"
	"github.com/Niiaks/Ledgerly/pkg/types"
)

type TransactionHandler struct {
	transactionService *TransactionService
}

func NewTransactionHandler(transactionService *TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

var validate = validator.New()

func (th *TransactionHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	idemKey := r.Header.Get(constants.IdempotencyKeyHeader)
	if idemKey == "" {
		logger.Warn().Msg("Idempotency-Key header is missing")
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Idempotency-Key header is required"})
		return
	}

	var req types.RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode transaction request")
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		return
	}
	if err := validate.Struct(&req); err != nil {
		middleware.WriteError(w, r, err, "Validation error")
		return
	}

	tx, err := th.transactionService.Record(ctx, &req, idemKey)
	if err != nil {
		middleware.WriteError(w, r, err, "Failed to record transaction")
		return
	}
	middleware.AddTraceAttribute(ctx, "seller.id", tx.SellerID)
	middleware.AddTraceAttribute(ctx, "transaction.id", tx.ID)
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

func (th *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := th.transactionService.Get(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		middleware.WriteError(w, r, err, "Failed to load transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

func (th *TransactionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		return
	}
	if err := validate.Struct(&req); err != nil {
		middleware.WriteError(w, r, err, "Validation error")
		return
	}

	tx, err := th.transactionService.UpdateStatus(r.Context(), chi.URLParam(r, "transactionID"), req.Status)
	if err != nil {
		middleware.WriteError(w, r, err, "Failed to update transaction status")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}
