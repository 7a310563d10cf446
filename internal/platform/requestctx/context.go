package requestctx

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerContextKey contextKey = "github.com/quantum-portal/api/internal/platform/requestctx/logger"
	traceContextKey  contextKey = "github.com/quantum-portal/api/internal/platform/requestctx/trace"
	tenantContextKey contextKey = "github.com/quantum-portal/api/internal/platform/requestctx/tenant"
)

var noopLogger = zap.NewNop()

// ErrNoTenant is returned by tenant-scoped components when the context carries no tenant.
var ErrNoTenant = errors.New("requestctx: tenant missing from context")

// TraceInfo captures trace metadata propagated through request context.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger retrieves the zap logger from context or returns a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared noop logger instance used across the package.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace stores the trace metadata on the context for downstream usage.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceContextKey, info)
}

// Trace retrieves the trace metadata from context when available.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	return info, ok
}

// TraceID extracts the trace identifier from context when present.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithTenantID scopes the context to a storefront tenant. Repositories read it to select
// the tenant's document tree.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	tenantID = strings.TrimSpace(tenantID)
	Annotate(ctx, "tenant_id", tenantID)
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// TenantID returns the tenant bound to the context, if any.
func TenantID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(tenantContextKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// RequireTenantID returns the context tenant or ErrNoTenant.
func RequireTenantID(ctx context.Context) (string, error) {
	id, ok := TenantID(ctx)
	if !ok {
		return "", ErrNoTenant
	}
	return id, nil
}

const annotationsContextKey contextKey = "github.com/quantum-portal/api/internal/platform/requestctx/annotations"

// Annotations collects request attributes that are only known after routing, such as the
// resolved tenant and the authenticated actor. The outermost middleware reads them once the
// handler returns.
type Annotations struct {
	mu     sync.Mutex
	values map[string]string
}

// WithAnnotations attaches a fresh annotation set to ctx.
func WithAnnotations(ctx context.Context) (context.Context, *Annotations) {
	if ctx == nil {
		ctx = context.Background()
	}
	a := &Annotations{values: make(map[string]string)}
	return context.WithValue(ctx, annotationsContextKey, a), a
}

// Annotate records key on the request's annotation set. Without one it does nothing.
func Annotate(ctx context.Context, key, value string) {
	if ctx == nil || key == "" {
		return
	}
	a, ok := ctx.Value(annotationsContextKey).(*Annotations)
	if !ok || a == nil {
		return
	}
	a.mu.Lock()
	a.values[key] = value
	a.mu.Unlock()
}

// Snapshot copies the recorded values.
func (a *Annotations) Snapshot() map[string]string {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}
