package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/service"
)

// NewNoShowSweepHandler returns POST /internal/sweeps/no-show, invoked by
// the external scheduler. Idempotent: re-running on an order no longer
// BOOKED is a no-op.
func NewNoShowSweepHandler(bookings *service.BookingService, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		ReservationID string `json:"reservation_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		reservationID, err := uuid.Parse(req.ReservationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid reservation_id")
			return
		}

		if err := bookings.NoShowSweep(r.Context(), reservationID); err != nil {
			writeFault(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
