package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/services"
)

type stubPublishing struct {
	calls  []time.Time
	result services.PublishResult
	err    error
}

func (s *stubPublishing) PublishDue(_ context.Context, now time.Time) (services.PublishResult, error) {
	s.calls = append(s.calls, now)
	return s.result, s.err
}

type stubMedia struct {
	services.MediaService
	events []services.MediaUploadEvent
	err    error
}

func (s *stubMedia) HandleUploadWebhook(_ context.Context, event services.MediaUploadEvent) (services.MediaAsset, error) {
	s.events = append(s.events, event)
	if s.err != nil {
		return services.MediaAsset{}, s.err
	}
	return services.MediaAsset{ID: event.AssetID, PublicURL: event.PublicURL, Status: domain.MediaStatusReady}, nil
}

func TestInternalPublishingRun(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	publishing := &stubPublishing{result: services.PublishResult{Tenants: 2, StaticPages: 3, DynamicPages: 1}}
	router := newTestRouter(NewInternalHandlers(publishing, func() time.Time { return now }).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/publishing:run", nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []time.Time{now}, publishing.calls)
	assert.JSONEq(t, `{"tenants":2,"staticPages":3,"dynamicPages":1,"failures":0}`, rr.Body.String())

	publishing.err = services.ErrUnavailable
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/publishing:run", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestWebhookMediaUploadRequiresSignature(t *testing.T) {
	now := time.Now()
	media := &stubMedia{}
	validator := auth.NewHMACValidator(
		auth.SecretProviderFunc(func(context.Context, string) (string, error) { return "s3cr3t", nil }),
		auth.NewInMemoryNonceStore(),
		auth.WithHMACClock(func() time.Time { return now }),
	)
	router := NewRouter(
		WithWebhookMiddlewares(validator.RequireHMAC("media")),
		WithWebhookRoutes(NewWebhookHandlers(media).Routes),
	)
	const path = "/api/v1/webhooks/media/uploads"
	body := `{"tenantId":"acme","assetId":"asset-01","publicUrl":"https://cdn.test/a.png"}`

	unsigned := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, unsigned)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, media.events)

	signed := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	signature, timestamp := auth.Sign("s3cr3t", http.MethodPost, path, []byte(body), now, "nonce-1")
	signed.Header.Set(auth.DefaultSignatureHeader, signature)
	signed.Header.Set(auth.DefaultTimestampHeader, timestamp)
	signed.Header.Set(auth.DefaultNonceHeader, "nonce-1")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, signed)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, media.events, 1)
	assert.Equal(t, services.MediaUploadEvent{TenantID: "acme", AssetID: "asset-01", PublicURL: "https://cdn.test/a.png"}, media.events[0])

	media.err = services.ErrMediaNotFound
	replay := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	signature, timestamp = auth.Sign("s3cr3t", http.MethodPost, path, []byte(body), now, "nonce-2")
	replay.Header.Set(auth.DefaultSignatureHeader, signature)
	replay.Header.Set(auth.DefaultTimestampHeader, timestamp)
	replay.Header.Set(auth.DefaultNonceHeader, "nonce-2")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, replay)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "media_not_found", errorCode(t, rr))
}
