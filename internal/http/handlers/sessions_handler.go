package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/http/middleware"
	"evcharge/internal/service"
)

// SessionsHandler groups session lifecycle endpoints.
type SessionsHandler struct {
	sessions *service.SessionService
	logger   *zap.Logger
}

// NewSessionsHandler builds the handler group.
func NewSessionsHandler(sessions *service.SessionService, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, logger: logger}
}

type startRequest struct {
	ReservationID string  `json:"reservation_id"`
	VehicleID     string  `json:"vehicle_id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

// Start handles POST /sessions/start.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation_id")
		return
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid vehicle_id")
		return
	}

	session, err := h.sessions.Start(r.Context(), userID, reservationID, vehicleID, req.Latitude, req.Longitude)
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Monitor handles GET /sessions/monitor.
func (h *SessionsHandler) Monitor(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	result, err := h.sessions.Monitor(r.Context(), sessionID, userID)
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type endRequest struct {
	SessionID string `json:"session_id"`
}

// End handles POST /sessions/end.
func (h *SessionsHandler) End(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	session, err := h.sessions.End(r.Context(), sessionID, userID)
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ForceEnd handles POST /internal/sessions/force-end, an operator action
// served off the internal route group.
func (h *SessionsHandler) ForceEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	session, err := h.sessions.ForceEnd(r.Context(), sessionID)
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Active handles GET /sessions/active, the operator listing served from the
// snapshot cache.
func (h *SessionsHandler) Active(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.sessions.ActiveSessions(r.Context())
	if err != nil {
		writeFault(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": snaps})
}
