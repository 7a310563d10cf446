package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubTokenVerifier struct {
	token    *firebaseauth.Token
	err      error
	received string
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	s.received = idToken
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

func serveWithToken(t *testing.T, h http.Handler, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/pages", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	code, _ := body["error"].(string)
	return code
}

func TestRequireFirebaseAuth_AllowsValidToken(t *testing.T) {
	verifier := &stubTokenVerifier{token: &firebaseauth.Token{
		UID: "uid-123",
		Claims: map[string]interface{}{
			"roles":   []interface{}{"Editor", "unknown"},
			"tenants": []interface{}{"acme", "globex"},
			"email":   "editor@example.com",
		},
	}}

	var got *Identity
	handler := NewAuthenticator(verifier).RequireFirebaseAuth(RoleViewer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := serveWithToken(t, handler, "Bearer token-value")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if verifier.received != "token-value" {
		t.Fatalf("expected verifier to receive token-value, got %s", verifier.received)
	}
	if got == nil || got.UID != "uid-123" {
		t.Fatalf("expected identity in context, got %+v", got)
	}
	if len(got.Roles) != 1 || got.Roles[0] != RoleEditor {
		t.Fatalf("expected only the editor role, got %v", got.Roles)
	}
	if !got.HasRole(RoleViewer) || got.HasRole(RoleAdmin) {
		t.Fatalf("unexpected role hierarchy for %v", got.Roles)
	}
	if !got.CanAccessTenant("ACME") || got.CanAccessTenant("initech") {
		t.Fatalf("unexpected tenant access for %v", got.Tenants)
	}
	if got.Actor() != "editor@example.com" {
		t.Fatalf("expected email actor, got %s", got.Actor())
	}
}

func TestRequireFirebaseAuth_LegacyRoleClaim(t *testing.T) {
	verifier := &stubTokenVerifier{token: &firebaseauth.Token{
		UID:    "uid-1",
		Claims: map[string]interface{}{"role": map[string]interface{}{"admin": true, "viewer": false}},
	}}
	handler := NewAuthenticator(verifier).RequireFirebaseAuth(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())
		if !identity.CanAccessTenant("anything") {
			t.Fatalf("admin should access every tenant")
		}
		w.WriteHeader(http.StatusOK)
	}))

	if rr := serveWithToken(t, handler, "Bearer abc"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireFirebaseAuth_Rejections(t *testing.T) {
	viewer := &firebaseauth.Token{UID: "v", Claims: map[string]interface{}{"roles": "viewer"}}
	noRoles := &firebaseauth.Token{UID: "n", Claims: map[string]interface{}{"roles": []interface{}{"guest"}}}

	cases := []struct {
		name     string
		verifier *stubTokenVerifier
		header   string
		status   int
		code     string
	}{
		{"missing header", &stubTokenVerifier{token: viewer}, "", http.StatusUnauthorized, "unauthenticated"},
		{"wrong scheme", &stubTokenVerifier{token: viewer}, "Basic abc", http.StatusUnauthorized, "unauthenticated"},
		{"verification failed", &stubTokenVerifier{err: errors.New("bad signature")}, "Bearer x", http.StatusUnauthorized, "invalid_token"},
		{"timeout", &stubTokenVerifier{err: context.DeadlineExceeded}, "Bearer x", http.StatusUnauthorized, "invalid_token"},
		{"no known roles", &stubTokenVerifier{token: noRoles}, "Bearer x", http.StatusForbidden, "forbidden"},
		{"insufficient role", &stubTokenVerifier{token: viewer}, "Bearer x", http.StatusForbidden, "forbidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAuthenticator(tc.verifier).RequireFirebaseAuth(RoleEditor)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatalf("handler should not run")
			}))
			rr := serveWithToken(t, handler, tc.header)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if code := errorCode(t, rr); code != tc.code {
				t.Fatalf("expected error %q, got %q", tc.code, code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rr.Code)
	}

	ctx := WithIdentity(req.Context(), &Identity{UID: "e", Roles: []string{RoleEditor}})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(ctx))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for editor, got %d", rr.Code)
	}

	ctx = WithIdentity(req.Context(), &Identity{UID: "a", Roles: []string{RoleAdmin}})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(ctx))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rr.Code)
	}
}

func TestIdentityWildcardTenant(t *testing.T) {
	identity := &Identity{UID: "u", Roles: []string{RoleViewer}, Tenants: []string{AllTenants}}
	if !identity.CanAccessTenant("acme") {
		t.Fatalf("wildcard tenant should grant access")
	}
	if identity.CanAccessTenant(" ") {
		t.Fatalf("blank tenant should never match")
	}
	var nilIdentity *Identity
	if nilIdentity.HasRole(RoleViewer) || nilIdentity.Actor() != "" {
		t.Fatalf("nil identity should be inert")
	}
}
