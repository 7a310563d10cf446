package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/services"
)

type stubSystemService struct {
	report services.SystemHealthReport
	err    error
}

func (s *stubSystemService) HealthReport(context.Context) (services.SystemHealthReport, error) {
	return s.report, s.err
}

var _ services.SystemService = (*stubSystemService)(nil)

type probeBody struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	Checks      map[string]struct {
		Status    string `json:"status"`
		LatencyMs int64  `json:"latencyMs"`
	} `json:"checks"`
	Details []string `json:"details"`
}

func decodeProbe(t *testing.T, rr *httptest.ResponseRecorder) probeBody {
	t.Helper()
	var body probeBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealthzReportsBuildWithoutDependencies(t *testing.T) {
	deployedAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	h := NewHealthHandlers(
		WithHealthBuildInfo(services.BuildInfo{Version: "3.4.0", Environment: "prod", StartedAt: deployedAt}),
		WithHealthClock(func() time.Time { return deployedAt.Add(75 * time.Second) }),
		WithHealthSystemService(&stubSystemService{err: context.DeadlineExceeded}),
	)

	rr := httptest.NewRecorder()
	h.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeProbe(t, rr)
	assert.Equal(t, domain.HealthStatusOK, body.Status)
	assert.Equal(t, "3.4.0", body.Version)
	assert.Equal(t, "prod", body.Environment)
	assert.Equal(t, "1m15s", body.Uptime)
}

func TestReadyzStatusCodes(t *testing.T) {
	checkedAt := time.Date(2025, 6, 2, 9, 5, 0, 0, time.UTC)
	cases := []struct {
		name        string
		svc         services.SystemService
		wantCode    int
		wantStatus  string
		wantDetails []string
	}{
		{
			name:       "no system service",
			wantCode:   http.StatusOK,
			wantStatus: domain.HealthStatusOK,
		},
		{
			name: "all dependencies ok",
			svc: &stubSystemService{report: services.SystemHealthReport{
				Status: domain.HealthStatusOK,
				Checks: map[string]domain.SystemHealthCheck{
					"firestore": {Status: domain.HealthStatusOK, Latency: 12 * time.Millisecond, CheckedAt: checkedAt},
				},
			}},
			wantCode:   http.StatusOK,
			wantStatus: domain.HealthStatusOK,
		},
		{
			name: "optional dependency failing",
			svc: &stubSystemService{report: services.SystemHealthReport{
				Status: domain.HealthStatusDegraded,
				Checks: map[string]domain.SystemHealthCheck{
					"firestore":     {Status: domain.HealthStatusOK},
					"secretManager": {Status: domain.HealthStatusError, Error: "permission denied"},
				},
			}},
			wantCode:    http.StatusOK,
			wantStatus:  domain.HealthStatusDegraded,
			wantDetails: []string{"secretManager: permission denied"},
		},
		{
			name: "required dependency failing",
			svc: &stubSystemService{report: services.SystemHealthReport{
				Status: domain.HealthStatusError,
				Checks: map[string]domain.SystemHealthCheck{
					"firestore": {Status: domain.HealthStatusError, Error: "deadline exceeded"},
				},
			}},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  domain.HealthStatusError,
			wantDetails: []string{"firestore: deadline exceeded"},
		},
		{
			name:        "collection error",
			svc:         &stubSystemService{err: context.DeadlineExceeded},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  domain.HealthStatusError,
			wantDetails: []string{context.DeadlineExceeded.Error()},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := []HealthOption{WithHealthClock(func() time.Time { return checkedAt })}
			if tc.svc != nil {
				opts = append(opts, WithHealthSystemService(tc.svc))
			}
			h := NewHealthHandlers(opts...)

			rr := httptest.NewRecorder()
			h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			require.Equal(t, tc.wantCode, rr.Code)
			body := decodeProbe(t, rr)
			assert.Equal(t, tc.wantStatus, body.Status)
			assert.Equal(t, tc.wantDetails, body.Details)
		})
	}
}

func TestReadyzReportsCheckLatency(t *testing.T) {
	h := NewHealthHandlers(WithHealthSystemService(&stubSystemService{report: services.SystemHealthReport{
		Status: domain.HealthStatusOK,
		Checks: map[string]domain.SystemHealthCheck{
			"firestore": {Status: domain.HealthStatusOK, Latency: 42 * time.Millisecond},
		},
	}}))

	rr := httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	body := decodeProbe(t, rr)
	require.Contains(t, body.Checks, "firestore")
	assert.Equal(t, int64(42), body.Checks["firestore"].LatencyMs)
}
