package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/platform/httpx"
	"github.com/quantum-portal/api/internal/platform/observability"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/services"
)

// DefaultTenantHeader carries an explicit tenant ID and wins over the request host.
const DefaultTenantHeader = "X-Tenant-ID"

// TenantResolver resolves the tenant of an incoming request.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, host, headerValue string) (services.Tenant, error)
}

// Tenancy resolves the request tenant into the context.
type Tenancy struct {
	resolver TenantResolver
	header   string
}

// NewTenancy constructs the tenancy middleware factory. An empty header uses X-Tenant-ID.
func NewTenancy(resolver TenantResolver, header string) *Tenancy {
	header = strings.TrimSpace(header)
	if header == "" {
		header = DefaultTenantHeader
	}
	return &Tenancy{resolver: resolver, header: header}
}

// Public resolves the tenant for storefront routes. Suspended tenants are rejected.
func (t *Tenancy) Public(next http.Handler) http.Handler {
	return t.middleware(next, false)
}

// Admin resolves the tenant for admin routes and checks the identity may manage it. It must
// run after authentication. Suspended tenants stay manageable.
func (t *Tenancy) Admin(next http.Handler) http.Handler {
	return t.middleware(next, true)
}

func (t *Tenancy) middleware(next http.Handler, admin bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if t == nil || t.resolver == nil {
			httpx.WriteError(ctx, w, httpx.NewError("unavailable", "tenant resolution unavailable", http.StatusServiceUnavailable))
			return
		}
		tenant, err := t.resolver.ResolveTenant(ctx, r.Host, r.Header.Get(t.header))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrInvalidInput):
				httpx.WriteError(ctx, w, httpx.NewError("tenant_not_found", "tenant not found", http.StatusNotFound))
			default:
				writeServiceError(w, r, err, "tenant")
			}
			return
		}

		if admin {
			identity, ok := auth.IdentityFromContext(ctx)
			if !ok {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			if !identity.CanAccessTenant(tenant.ID) {
				httpx.WriteError(ctx, w, httpx.NewError("forbidden", "identity may not manage this tenant", http.StatusForbidden))
				return
			}
		} else if tenant.Status == domain.TenantStatusSuspended {
			httpx.WriteError(ctx, w, httpx.NewError("tenant_suspended", "tenant is suspended", http.StatusForbidden))
			return
		}

		ctx = requestctx.WithTenantID(ctx, tenant.ID)
		ctx = observability.WithLogger(ctx, observability.FromContext(ctx).With(zap.String("tenant_id", tenant.ID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
