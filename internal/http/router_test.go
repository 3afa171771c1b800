package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouterAuthAndMethodGuards(t *testing.T) {
	// A middleware that rejects everything shows which routes sit behind
	// auth and which belong to the internal group.
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	router := NewRouter(Routes{
		SessionEnd:      ok,
		SessionForceEnd: ok,
		NoShowSweep:     ok,
		Health:          ok,
	}, deny)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/sessions/end", http.StatusUnauthorized},
		{http.MethodPost, "/internal/sessions/force-end", http.StatusOK},
		{http.MethodPost, "/internal/sweeps/no-show", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/internal/sessions/force-end", http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
}
