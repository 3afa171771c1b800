package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"evcharge/internal/faults"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFault maps the error taxonomy onto HTTP statuses. Unclassified
// errors are logged and answered with a generic message.
func writeFault(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind, ok := faults.KindOf(err)
	if !ok {
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch kind {
	case faults.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case faults.KindConflict:
		var fe *faults.Error
		payload := map[string]string{"error": err.Error()}
		if errors.As(err, &fe) && !fe.ConflictingStart.IsZero() {
			payload["conflicting_start"] = fe.ConflictingStart.Format(time.RFC3339)
		}
		writeJSON(w, http.StatusConflict, payload)
	case faults.KindAuthorization:
		writeError(w, http.StatusForbidden, err.Error())
	case faults.KindState:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
