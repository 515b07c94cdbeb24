package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.NotEqual(t, "unknown", seen)
	assert.Equal(t, seen, rec.Header().Get("X-Correlation-ID"))
}

func TestCorrelationID_EchoesCallerID(t *testing.T) {
	var seen string
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "caller-supplied")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied", seen)
	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Correlation-ID"))
}

func TestGetCorrelationID_BareContext(t *testing.T) {
	assert.Equal(t, "unknown", GetCorrelationID(context.Background()))

	_, ok := CorrelationIDFrom(context.Background())
	assert.False(t, ok)
}
