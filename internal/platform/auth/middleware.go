package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/quantum-portal/api/internal/platform/httpx"
)

const (
	defaultRolesClaim    = "roles"
	legacyRoleClaim      = "role"
	defaultTenantsClaim  = "tenants"
	defaultVerifyTimeout = 5 * time.Second
)

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Authenticator wires Firebase token verification into HTTP middleware.
type Authenticator struct {
	verifier     TokenVerifier
	rolesClaim   string
	tenantsClaim string
	timeout      time.Duration
}

// Option customises Authenticator behaviour.
type Option func(*Authenticator)

// WithRolesClaim overrides the custom claim used for role extraction. The singular "role"
// claim is always consulted as a fallback.
func WithRolesClaim(claim string) Option {
	return func(a *Authenticator) {
		if claim = strings.TrimSpace(claim); claim != "" {
			a.rolesClaim = claim
		}
	}
}

// WithTenantsClaim overrides the claim listing the tenants an identity may manage.
func WithTenantsClaim(claim string) Option {
	return func(a *Authenticator) {
		if claim = strings.TrimSpace(claim); claim != "" {
			a.tenantsClaim = claim
		}
	}
}

// WithVerificationTimeout sets the timeout used when verifying tokens.
func WithVerificationTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAuthenticator constructs a Firebase Authenticator for middleware composition.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier:     verifier,
		rolesClaim:   defaultRolesClaim,
		tenantsClaim: defaultTenantsClaim,
		timeout:      defaultVerifyTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequireFirebaseAuth verifies the Authorization bearer token and requires at least minRole.
// Identities without any recognised role are rejected.
func (a *Authenticator) RequireFirebaseAuth(minRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondAuthError(r.Context(), w, http.StatusUnauthorized, "unauthenticated", "authorization header missing or invalid")
				return
			}
			if a == nil || a.verifier == nil {
				respondAuthError(r.Context(), w, http.StatusUnauthorized, "unauthenticated", "authorization service unavailable")
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
			token, err := a.verifier.VerifyIDToken(ctx, tokenStr)
			cancel()
			if err != nil {
				respondVerificationError(r.Context(), w, err)
				return
			}

			roles := stringsFromClaim(token.Claims, a.rolesClaim)
			if len(roles) == 0 {
				roles = stringsFromClaim(token.Claims, legacyRoleClaim)
			}
			identity := &Identity{
				UID:     token.UID,
				Email:   claimAsString(token.Claims, "email"),
				Roles:   knownRoles(roles),
				Tenants: stringsFromClaim(token.Claims, a.tenantsClaim),
				token:   token,
			}
			if len(identity.Roles) == 0 {
				respondAuthError(r.Context(), w, http.StatusForbidden, "forbidden", "no roles associated with identity")
				return
			}
			if minRole != "" && !identity.HasRole(minRole) {
				respondAuthError(r.Context(), w, http.StatusForbidden, "forbidden", "identity does not have required role")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole narrows an already authenticated route to identities holding at least role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				respondAuthError(r.Context(), w, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}
			if !identity.HasRole(role) {
				respondAuthError(r.Context(), w, http.StatusForbidden, "forbidden", "identity does not have required role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// stringsFromClaim accepts a string, a string list or a map of name to true.
func stringsFromClaim(claims map[string]interface{}, key string) []string {
	raw, ok := claims[key]
	if !ok {
		return nil
	}
	var values []string
	switch v := raw.(type) {
	case string:
		values = strings.Split(v, ",")
	case []string:
		values = v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
	case map[string]interface{}:
		for name, flag := range v {
			if enabled, ok := flag.(bool); ok && enabled {
				values = append(values, name)
			}
		}
	}

	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = normaliseRole(value)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func knownRoles(roles []string) []string {
	out := roles[:0:0]
	for _, role := range roles {
		if _, ok := roleRank[role]; ok {
			out = append(out, role)
		}
	}
	return out
}

func claimAsString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func extractBearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func respondAuthError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	httpx.WriteError(ctx, w, httpx.NewError(code, message, status))
}

func respondVerificationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case firebaseauth.IsIDTokenExpired(err):
		respondAuthError(ctx, w, http.StatusUnauthorized, "token_expired", "firebase id token expired")
	case firebaseauth.IsIDTokenInvalid(err), errors.Is(err, context.DeadlineExceeded):
		respondAuthError(ctx, w, http.StatusUnauthorized, "invalid_token", "firebase id token invalid")
	default:
		respondAuthError(ctx, w, http.StatusUnauthorized, "invalid_token", "firebase id token verification failed")
	}
}
