package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantum-portal/api/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = requestctx.WithTenantID(ctx, "acme")
	rr := httptest.NewRecorder()

	WriteError(ctx, rr, NewError("category_has_children", "category has\nchildren", http.StatusConflict).
		WithDetail("categoryId", "c1").
		WithDetail("status", 200))

	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{
		"error":      "category_has_children",
		"message":    "category has children",
		"status":     float64(409),
		"request_id": "req-1",
		"tenant_id":  "acme",
		"categoryId": "c1",
	}, body)
}

func TestNewErrorDefaultsAndLimits(t *testing.T) {
	t.Parallel()

	err := NewError(strings.Repeat("x", 200), strings.Repeat("é", 600), 0)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Len(t, err.Code, codeLimit)
	assert.LessOrEqual(t, len(err.Message), messageLimit)
	assert.True(t, strings.HasSuffix(err.Message, "é"))
}
