package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// VerificationRecorder records server-to-server verification outcomes.
type VerificationRecorder interface {
	ObserveAuthVerification(kind string, success bool, reason string, duration time.Duration)
}

// OIDCValidator validates Google-signed OIDC tokens such as those sent by Cloud Scheduler.
type OIDCValidator struct {
	keys     *JWKSCache
	logger   *zap.Logger
	recorder VerificationRecorder
	now      func() time.Time
	leeway   time.Duration
}

// OIDCOption customises the validator.
type OIDCOption func(*OIDCValidator)

// WithOIDCLogger overrides the validator logger.
func WithOIDCLogger(logger *zap.Logger) OIDCOption {
	return func(v *OIDCValidator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithOIDCRecorder sets the verification recorder.
func WithOIDCRecorder(recorder VerificationRecorder) OIDCOption {
	return func(v *OIDCValidator) { v.recorder = recorder }
}

// WithOIDCClock injects a custom clock.
func WithOIDCClock(now func() time.Time) OIDCOption {
	return func(v *OIDCValidator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewOIDCValidator constructs an OIDCValidator.
func NewOIDCValidator(keys *JWKSCache, opts ...OIDCOption) *OIDCValidator {
	v := &OIDCValidator{
		keys:   keys,
		logger: zap.NewNop(),
		now:    time.Now,
		leeway: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// ServiceIdentity captures details about the authenticated service principal.
type ServiceIdentity struct {
	Subject  string
	Email    string
	Issuer   string
	Audience string
}

type serviceIdentityContextKey struct{}

// WithServiceIdentity attaches the verified service identity to the request context.
func WithServiceIdentity(ctx context.Context, identity *ServiceIdentity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, serviceIdentityContextKey{}, identity)
}

// ServiceIdentityFromContext retrieves the identity stored by the middleware.
func ServiceIdentityFromContext(ctx context.Context) (*ServiceIdentity, bool) {
	identity, ok := ctx.Value(serviceIdentityContextKey{}).(*ServiceIdentity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// RequireOIDC accepts requests bearing a valid RS256 token for audience issued by one of issuers.
// An empty issuer list accepts any issuer.
func (v *OIDCValidator) RequireOIDC(audience string, issuers []string) func(http.Handler) http.Handler {
	audience = strings.TrimSpace(audience)
	allowed := make(map[string]struct{}, len(issuers))
	for _, issuer := range issuers {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			allowed[issuer] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := v.now()
			fail := func(status int, code, reason, message string) {
				v.record(false, reason, start)
				respondAuthError(ctx, w, status, code, message)
			}

			if audience == "" || v.keys == nil {
				fail(http.StatusServiceUnavailable, "verification_unavailable", "not_configured", "oidc verification not configured")
				return
			}
			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				fail(http.StatusUnauthorized, "unauthenticated", "token_missing", "oidc token missing")
				return
			}

			claims := jwt.MapClaims{}
			parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithoutClaimsValidation())
			if _, err := parser.ParseWithClaims(tokenStr, claims, v.keys.Keyfunc(ctx)); err != nil {
				if errors.Is(err, ErrJWKSFetchFailed) {
					v.logger.Warn("auth: jwks unavailable", zap.Error(err))
					fail(http.StatusServiceUnavailable, "verification_unavailable", "jwks_unavailable", "oidc verification unavailable")
					return
				}
				fail(http.StatusUnauthorized, "invalid_token", "token_invalid", "oidc token verification failed")
				return
			}

			now := v.now()
			if !claims.VerifyExpiresAt(now.Add(-v.leeway).Unix(), true) || !claims.VerifyIssuedAt(now.Add(v.leeway).Unix(), false) {
				fail(http.StatusUnauthorized, "invalid_token", "token_expired", "oidc token expired")
				return
			}
			issuer, _ := claims["iss"].(string)
			if _, ok := allowed[issuer]; len(allowed) > 0 && !ok {
				v.logger.Info("auth: oidc issuer rejected", zap.String("issuer", issuer))
				fail(http.StatusUnauthorized, "invalid_token", "issuer_mismatch", "oidc issuer mismatch")
				return
			}
			if !claims.VerifyAudience(audience, true) {
				fail(http.StatusUnauthorized, "invalid_token", "audience_mismatch", "oidc audience mismatch")
				return
			}

			email, _ := claims["email"].(string)
			subject, _ := claims["sub"].(string)
			v.record(true, "ok", start)
			next.ServeHTTP(w, r.WithContext(WithServiceIdentity(ctx, &ServiceIdentity{
				Subject:  subject,
				Email:    email,
				Issuer:   issuer,
				Audience: audience,
			})))
		})
	}
}

func (v *OIDCValidator) record(success bool, reason string, start time.Time) {
	if v.recorder != nil {
		v.recorder.ObserveAuthVerification("oidc", success, reason, v.now().Sub(start))
	}
}
