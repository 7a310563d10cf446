package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/platform/requestctx"
)

func TestRateLimitByActor(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	handler := RateLimitByActor(2, time.Minute, clock)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(tenant, uid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/media/signatures", nil)
		ctx := requestctx.WithTenantID(req.Context(), tenant)
		ctx = auth.WithIdentity(ctx, &auth.Identity{UID: uid, Roles: []string{auth.RoleEditor}})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req.WithContext(ctx))
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := send("acme", "ed"); rr.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, rr.Code)
		}
	}
	rr := send("acme", "ed")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rr.Header().Get("Retry-After"))
	}
	if rr := send("globex", "ed"); rr.Code != http.StatusNoContent {
		t.Fatalf("other tenant should have its own window, got %d", rr.Code)
	}

	now = now.Add(time.Minute)
	if rr := send("acme", "ed"); rr.Code != http.StatusNoContent {
		t.Fatalf("expected window reset, got %d", rr.Code)
	}
}

func TestRateLimitByActorDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if got := RateLimitByActor(0, time.Minute, nil)(next); got == nil {
		t.Fatal("expected passthrough handler")
	}
}
