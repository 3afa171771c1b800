package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	AvailableSlots     http.HandlerFunc
	ReservationConfirm http.HandlerFunc
	ReservationCancel  http.HandlerFunc
	ReservationsMine   http.HandlerFunc
	SessionStart       http.HandlerFunc
	SessionMonitor     http.HandlerFunc
	SessionEnd         http.HandlerFunc
	SessionForceEnd    http.HandlerFunc
	SessionsActive     http.HandlerFunc
	FeesMe             http.HandlerFunc
	FeePay             http.HandlerFunc
	NoShowSweep        http.HandlerFunc
	Health             http.HandlerFunc
}

// NewRouter registers endpoints. Everything except /health and the
// /internal/ hooks sits behind the auth middleware; the internal group is
// for the scheduler and operator tooling, reachable only from the private
// network.
func NewRouter(routes Routes, auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	protected := func(expected string, handler http.HandlerFunc) http.Handler {
		return auth(method(expected, handler))
	}

	if routes.AvailableSlots != nil {
		mux.Handle("/slots/available", protected(http.MethodGet, routes.AvailableSlots))
	}
	if routes.ReservationConfirm != nil {
		mux.Handle("/reservations", protected(http.MethodPost, routes.ReservationConfirm))
	}
	if routes.ReservationCancel != nil {
		mux.Handle("/reservations/cancel", protected(http.MethodPost, routes.ReservationCancel))
	}
	if routes.ReservationsMine != nil {
		mux.Handle("/reservations/me", protected(http.MethodGet, routes.ReservationsMine))
	}
	if routes.SessionStart != nil {
		mux.Handle("/sessions/start", protected(http.MethodPost, routes.SessionStart))
	}
	if routes.SessionMonitor != nil {
		mux.Handle("/sessions/monitor", protected(http.MethodGet, routes.SessionMonitor))
	}
	if routes.SessionEnd != nil {
		mux.Handle("/sessions/end", protected(http.MethodPost, routes.SessionEnd))
	}
	if routes.SessionsActive != nil {
		mux.Handle("/sessions/active", protected(http.MethodGet, routes.SessionsActive))
	}
	if routes.FeesMe != nil {
		mux.Handle("/fees/me", protected(http.MethodGet, routes.FeesMe))
	}
	if routes.FeePay != nil {
		mux.Handle("/fees/pay", protected(http.MethodPost, routes.FeePay))
	}
	if routes.NoShowSweep != nil {
		mux.Handle("/internal/sweeps/no-show", method(http.MethodPost, routes.NoShowSweep))
	}
	if routes.SessionForceEnd != nil {
		mux.Handle("/internal/sessions/force-end", method(http.MethodPost, routes.SessionForceEnd))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
