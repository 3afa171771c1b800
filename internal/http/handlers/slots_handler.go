package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/service"
)

// NewAvailableSlotsHandler returns GET /slots/available.
func NewAvailableSlotsHandler(finder *service.SlotFinder, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		stationID := q.Get("station_id")
		if stationID == "" {
			writeError(w, http.StatusBadRequest, "station_id is required")
			return
		}
		vehicleID, err := uuid.Parse(q.Get("vehicle_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid vehicle_id")
			return
		}
		currentPct, err := strconv.ParseFloat(q.Get("current_pct"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid current_pct")
			return
		}
		targetPct, err := strconv.ParseFloat(q.Get("target_pct"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target_pct")
			return
		}
		day, err := time.Parse("2006-01-02", q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}

		points, err := finder.FindAvailableSlots(r.Context(), stationID, vehicleID, currentPct, targetPct, day)
		if err != nil {
			writeFault(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"station_id": stationID,
			"date":       day.Format("2006-01-02"),
			"points":     points,
		})
	}
}
