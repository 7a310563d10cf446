package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/pages/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, slug := range []string{"about", "contact", "faq"} {
		req := httptest.NewRequest(http.MethodGet, "/pages/"+slug, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(metrics.requests.WithLabelValues("/pages/{slug}", http.MethodGet, "204"))
	if got != 3 {
		t.Fatalf("expected 3 requests on route pattern, got %v", got)
	}
}

func TestMetricsHandlerExposesContentEvents(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveContentEvent("category", true)
	metrics.ObserveContentEvent("category", false)
	metrics.ObservePublished("static_page", 2)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `storefront_cms_events_content_changed_total{outcome="failed",resource="category"} 1`) {
		t.Fatalf("expected failed content event counter in output:\n%s", body)
	}
	if !strings.Contains(body, `storefront_cms_publishing_pages_published_total{kind="static_page"} 2`) {
		t.Fatalf("expected publishing counter in output")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveContentEvent("brand", true)
	metrics.ObservePublished("dynamic_page", 1)
	metrics.ObserveAuthVerification("oidc", false, "token_missing", 0)

	called := false
	h := metrics.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatalf("expected passthrough handler to run")
	}
}

func TestObserveAuthVerification(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveAuthVerification("hmac", false, "signature_mismatch", 2*time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `storefront_cms_auth_verification_duration_seconds_count{kind="hmac",outcome="rejected",reason="signature_mismatch"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("expected %s in output", want)
	}
}

func TestObserveIdempotency(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveIdempotency("replayed")
	metrics.ObserveIdempotency("replayed")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `storefront_cms_idempotency_requests_total{outcome="replayed"} 2`
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("expected %s in output", want)
	}
}
