package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/http/middleware"
	"evcharge/internal/service"
)

// ReservationsHandler groups booking endpoints.
type ReservationsHandler struct {
	bookings *service.BookingService
	logger   *zap.Logger
}

// NewReservationsHandler builds the handler group.
func NewReservationsHandler(bookings *service.BookingService, logger *zap.Logger) *ReservationsHandler {
	return &ReservationsHandler{bookings: bookings, logger: logger}
}

type confirmRequest struct {
	VehicleID         string   `json:"vehicle_id"`
	ChargingPointID   string   `json:"charging_point_id"`
	Start             string   `json:"start"`
	End               string   `json:"end"`
	SlotIDs           []string `json:"slot_ids,omitempty"`
	CurrentBatteryPct float64  `json:"current_battery_pct"`
	TargetBatteryPct  float64  `json:"target_battery_pct"`
}

// Confirm handles POST /reservations.
func (h *ReservationsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid vehicle_id")
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start, expected RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end, expected RFC3339")
		return
	}

	reservation, err := h.bookings.Confirm(r.Context(), service.ConfirmInput{
		UserID:            userID,
		VehicleID:         vehicleID,
		ChargingPointID:   req.ChargingPointID,
		Start:             start,
		End:               end,
		SlotIDs:           req.SlotIDs,
		CurrentBatteryPct: req.CurrentBatteryPct,
		TargetBatteryPct:  req.TargetBatteryPct,
	})
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

// ListMine handles GET /reservations/me.
func (h *ReservationsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	reservations, err := h.bookings.ListReservations(r.Context(), userID, 50)
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reservations": reservations})
}

type cancelRequest struct {
	ReservationID string `json:"reservation_id"`
	Reason        string `json:"reason"`
}

// Cancel handles POST /reservations/cancel.
func (h *ReservationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation_id")
		return
	}

	result, err := h.bookings.Cancel(r.Context(), reservationID, userID, req.Reason)
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
