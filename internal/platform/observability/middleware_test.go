package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/quantum-portal/api/internal/platform/requestctx"
)

func newObservedRouter(t *testing.T, handler http.HandlerFunc) (*chi.Mux, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	router := chi.NewRouter()
	router.Use(
		InjectLoggerMiddleware(logger),
		TraceMiddleware("demo-project"),
		RecoveryMiddleware(logger),
		RequestLoggerMiddleware("demo-project"),
	)
	router.Get("/tenants/{tenantID}/pages/{slug}", handler)
	return router, logs
}

func TestRequestLoggerIncludesLateAnnotations(t *testing.T) {
	router, logs := newObservedRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = requestctx.WithTenantID(r.Context(), chi.URLParam(r, "tenantID"))
		requestctx.Annotate(r.Context(), "user_id", "editor-1")
		w.WriteHeader(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodGet, "/tenants/acme/pages/about", nil)
	req.Header.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/1;o=1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "105445aa7843bc8bf206b12000100000/1;o=1", rr.Header().Get(cloudTraceHeader))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/tenants/{tenantID}/pages/{slug}", fields["route"])
	assert.Equal(t, int64(http.StatusAccepted), fields["status"])
	assert.Equal(t, "acme", fields["tenant_id"])
	assert.Equal(t, "editor-1", fields["user_id"])
	assert.Equal(t, "105445aa7843bc8bf206b12000100000", fields["trace_id"])
	assert.Equal(t, "projects/demo-project/traces/105445aa7843bc8bf206b12000100000", fields["logging.googleapis.com/trace"])
}

func TestRecoveryMiddlewareWritesEnvelope(t *testing.T) {
	router, logs := newObservedRouter(t, func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tenants/acme/pages/about", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body["error"])

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, zapcore.ErrorLevel, completed[0].Level)
}

func TestParseCloudTrace(t *testing.T) {
	sc, ok := parseCloudTrace("105445aa7843bc8bf206b12000100000/0000000000000abc;o=0")
	require.True(t, ok)
	assert.Equal(t, "0000000000000abc", sc.SpanID().String())
	assert.False(t, sc.IsSampled())

	for _, header := range []string{"", "nope", "105445aa/1;o=1", "105445aa7843bc8bf206b12000100000/zz"} {
		_, ok := parseCloudTrace(header)
		assert.False(t, ok, header)
	}
}

func TestLogSafe(t *testing.T) {
	assert.Equal(t, "abc", logSafe("a\nb\tc", 10))
	assert.Equal(t, "ééé", logSafe("éééé", 3))
}
