package httptransport

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5173"

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newStack(t *testing.T, logs *bytes.Buffer) (http.Handler, *int) {
	t.Helper()
	calls := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	})
	limiter := NewRateLimiter(1, 1, func(r *http.Request) string { return r.Header.Get("Authorization") })
	return Stack(inner, testOrigin, log.New(logs, "", 0), requireBearer, limiter), &calls
}

func TestStackRejectionsCarryCORSHeaders(t *testing.T) {
	var logs bytes.Buffer
	h, calls := newStack(t, &logs)

	unauthenticated := httptest.NewRecorder()
	h.ServeHTTP(unauthenticated, httptest.NewRequest(http.MethodGet, "/v1/health/samples", nil))
	require.Equal(t, http.StatusUnauthorized, unauthenticated.Code)
	assert.Equal(t, testOrigin, unauthenticated.Header().Get("Access-Control-Allow-Origin"))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/health/samples", nil)
		req.Header.Set("Authorization", "Bearer a")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	require.Equal(t, http.StatusNoContent, send().Code)
	limited := send()
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, testOrigin, limited.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 1, *calls)

	assert.Contains(t, logs.String(), "GET /v1/health/samples 401")
	assert.Contains(t, logs.String(), "GET /v1/health/samples 429")
}

func TestStackAnswersPreflightWithoutCredentials(t *testing.T) {
	var logs bytes.Buffer
	h, calls := newStack(t, &logs)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/health/samples", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Zero(t, *calls)
}
