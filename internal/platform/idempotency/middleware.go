package idempotency

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/platform/httpx"
	"github.com/quantum-portal/api/internal/platform/requestctx"
)

const (
	DefaultHeader = "Idempotency-Key"
	ReplayHeader  = "Idempotent-Replayed"

	maxKeyLength    = 255
	maxRequestBody  = 4 << 20
	maxRecordedBody = 1 << 20
)

// Outcome labels reported to the observer.
const (
	OutcomeStored     = "stored"
	OutcomeReplayed   = "replayed"
	OutcomeConflict   = "conflict"
	OutcomeInProgress = "in_progress"
	OutcomeReleased   = "released"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

type guard struct {
	store    Store
	header   string
	ttl      time.Duration
	clock    func() time.Time
	logger   *zap.Logger
	scope    func(context.Context) string
	observer func(outcome string)
}

// MiddlewareOption customises middleware behaviour.
type MiddlewareOption func(*guard)

// WithHeader overrides the header carrying the idempotency key.
func WithHeader(name string) MiddlewareOption {
	return func(g *guard) {
		if name = strings.TrimSpace(name); name != "" {
			g.header = http.CanonicalHeaderKey(name)
		}
	}
}

// WithTTL configures how long completed responses are replayable.
func WithTTL(ttl time.Duration) MiddlewareOption {
	return func(g *guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithLogger(logger *zap.Logger) MiddlewareOption {
	return func(g *guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) MiddlewareOption {
	return func(g *guard) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithScope replaces the function partitioning keys. The default scopes by tenant and caller.
func WithScope(scope func(context.Context) string) MiddlewareOption {
	return func(g *guard) {
		if scope != nil {
			g.scope = scope
		}
	}
}

// WithObserver receives one outcome per keyed request.
func WithObserver(observe func(outcome string)) MiddlewareOption {
	return func(g *guard) {
		if observe != nil {
			g.observer = observe
		}
	}
}

// Middleware makes keyed mutating requests safe to retry. The first request with a key runs and
// its response is stored; repeats with the same body get the stored response back, while a
// different body under the same key is a conflict. Requests without the header pass through.
// 5xx responses are not stored.
func Middleware(store Store, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	g := &guard{
		store:    store,
		header:   DefaultHeader,
		ttl:      DefaultTTL,
		clock:    time.Now,
		logger:   zap.NewNop(),
		scope:    callerScope,
		observer: func(string) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(g.header))
			if key == "" || !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			g.observer(g.serve(w, r, key, next))
		})
	}
}

func (g *guard) serve(w http.ResponseWriter, r *http.Request, key string, next http.Handler) string {
	ctx := r.Context()
	if len(key) > maxKeyLength {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "idempotency key too long", http.StatusBadRequest))
		return OutcomeRejected
	}
	body, err := bufferBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body too large", http.StatusRequestEntityTooLarge))
		} else {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
		}
		return OutcomeRejected
	}

	scope := g.scope(ctx)
	storeKey := scope + "|" + key
	fingerprint := fingerprintOf(r, body)
	log := g.logger.With(zap.String("scope", scope))

	reservation, err := g.store.Reserve(ctx, storeKey, fingerprint, g.clock().UTC(), g.ttl)
	switch {
	case errors.Is(err, ErrFingerprintMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_conflict", "idempotency key already used for a different request", http.StatusConflict))
		return OutcomeConflict
	case err != nil:
		log.Error("idempotency reserve failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "unable to process idempotency key", http.StatusServiceUnavailable))
		return OutcomeError
	}
	switch reservation.State {
	case ReservationStateCompleted:
		replay(w, reservation.Record)
		return OutcomeReplayed
	case ReservationStatePending:
		httpx.WriteError(ctx, w, httpx.NewError("idempotency_in_progress", "another request is processing this idempotency key", http.StatusConflict))
		return OutcomeInProgress
	}

	buf := &bufferedResponse{header: make(http.Header)}
	next.ServeHTTP(buf, r)

	// The handler's write has happened; a client that went away must not leave the key pending.
	persistCtx := context.WithoutCancel(ctx)
	outcome := OutcomeStored
	if buf.status() >= http.StatusInternalServerError || buf.overflow {
		outcome = OutcomeReleased
		if err := g.store.Release(persistCtx, storeKey, fingerprint); err != nil {
			log.Warn("idempotency release failed", zap.Error(err))
		}
	} else {
		resp := Response{Status: buf.status(), Headers: buf.header, Body: buf.body.Bytes()}
		if err := g.store.SaveResponse(persistCtx, storeKey, fingerprint, resp, g.clock().UTC(), g.ttl); err != nil {
			outcome = OutcomeError
			log.Error("idempotency save failed", zap.Error(err))
			_ = g.store.Release(persistCtx, storeKey, fingerprint)
		}
	}
	if err := buf.flushTo(w); err != nil {
		log.Debug("idempotency flush failed", zap.Error(err))
	}
	return outcome
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func callerScope(ctx context.Context) string {
	tenant, ok := requestctx.TenantID(ctx)
	if !ok {
		tenant = "-"
	}
	caller := "anonymous"
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity.UID != "" {
		caller = identity.UID
	} else if svc, ok := auth.ServiceIdentityFromContext(ctx); ok && svc.Subject != "" {
		caller = "svc:" + svc.Subject
	}
	return tenant + "|" + caller
}

// bufferBody reads the body once for fingerprinting and hands the handler a fresh reader.
func bufferBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func fingerprintOf(r *http.Request, body []byte) string {
	mediaType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	return sha256Hex([]byte(strings.Join([]string{
		r.Method,
		r.URL.Path,
		r.URL.RawQuery,
		strings.ToLower(strings.TrimSpace(mediaType)),
		sha256Hex(body),
	}, "\n")))
}

func replay(w http.ResponseWriter, record Record) {
	header := w.Header()
	for name, values := range record.ResponseHeaders {
		header[name] = append([]string(nil), values...)
	}
	header.Set(ReplayHeader, "true")
	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(record.ResponseBody)
}

// bufferedResponse holds the handler's response until it has been stored.
type bufferedResponse struct {
	header   http.Header
	code     int
	body     bytes.Buffer
	overflow bool
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	if b.code == 0 {
		b.code = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	if b.body.Len()+len(p) > maxRecordedBody {
		b.overflow = true
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) status() int {
	if b.code == 0 {
		return http.StatusOK
	}
	return b.code
}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) error {
	dst := w.Header()
	for name, values := range b.header {
		dst[name] = values
	}
	w.WriteHeader(b.status())
	if b.body.Len() == 0 {
		return nil
	}
	_, err := w.Write(b.body.Bytes())
	return err
}
