package auth

import (
	"context"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/quantum-portal/api/internal/platform/requestctx"
)

// Roles form a hierarchy: admin includes editor, editor includes viewer.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// AllTenants in the tenants claim grants access to every tenant without the admin role.
const AllTenants = "*"

var roleRank = map[string]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// Identity captures the authenticated principal details extracted from a Firebase ID token.
type Identity struct {
	UID     string
	Email   string
	Roles   []string
	Tenants []string

	token *firebaseauth.Token
}

// Token exposes the decoded Firebase ID token associated with this identity.
func (i *Identity) Token() *firebaseauth.Token {
	if i == nil {
		return nil
	}
	return i.token
}

// HasRole reports whether the identity holds role or a role above it.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	want, ok := roleRank[normaliseRole(role)]
	if !ok {
		return false
	}
	for _, r := range i.Roles {
		if roleRank[normaliseRole(r)] >= want {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity manages the whole platform.
func (i *Identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin)
}

// CanAccessTenant reports whether the identity may operate on tenantID.
func (i *Identity) CanAccessTenant(tenantID string) bool {
	if i == nil {
		return false
	}
	if i.IsAdmin() {
		return true
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return false
	}
	for _, t := range i.Tenants {
		if t == AllTenants || strings.EqualFold(t, tenantID) {
			return true
		}
	}
	return false
}

// Actor returns the audit actor for the identity.
func (i *Identity) Actor() string {
	if i == nil {
		return ""
	}
	if i.Email != "" {
		return i.Email
	}
	return i.UID
}

type contextKey string

const identityContextKey contextKey = "github.com/quantum-portal/api/internal/platform/auth/identity"

// WithIdentity stores the identity within the context for downstream handlers and annotates
// the request with the caller's UID.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	if identity != nil {
		requestctx.Annotate(ctx, "user_id", identity.UID)
	}
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
