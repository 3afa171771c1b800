package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/http/middleware"
	"evcharge/internal/service"
)

// FeesHandler groups fee endpoints.
type FeesHandler struct {
	fees   *service.FeesService
	logger *zap.Logger
}

// NewFeesHandler builds the handler group.
func NewFeesHandler(fees *service.FeesService, logger *zap.Logger) *FeesHandler {
	return &FeesHandler{fees: fees, logger: logger}
}

// ListMine handles GET /fees/me.
func (h *FeesHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	fees, err := h.fees.ListByUser(r.Context(), userID, 50)
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"fees": fees})
}

type payRequest struct {
	FeeID string `json:"fee_id"`
}

// Pay handles POST /fees/pay.
func (h *FeesHandler) Pay(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	feeID, err := uuid.Parse(req.FeeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fee_id")
		return
	}

	fee, err := h.fees.Pay(r.Context(), feeID, userID)
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fee)
}
