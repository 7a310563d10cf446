package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

// BuildInfo captures runtime metadata exposed via health endpoints.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// SystemServiceDeps wires the readiness reporter.
type SystemServiceDeps struct {
	HealthRepository repositories.HealthRepository
	Clock            func() time.Time
	Build            BuildInfo
	// OptionalChecks name dependencies whose failure degrades the report instead of failing it.
	OptionalChecks []string
	// CacheTTL reuses the last report for this long. Zero disables caching.
	CacheTTL time.Duration
}

type systemService struct {
	healthRepo repositories.HealthRepository
	clock      func() time.Time
	build      BuildInfo
	optional   map[string]struct{}
	ttl        time.Duration

	probes singleflight.Group

	mu       sync.Mutex
	cached   SystemHealthReport
	cachedAt time.Time
}

var _ SystemService = (*systemService)(nil)

// NewSystemService assembles the readiness reporter.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.HealthRepository == nil {
		return nil, errors.New("system service: health repository is required")
	}
	if deps.CacheTTL < 0 {
		return nil, errors.New("system service: cache ttl must not be negative")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	svc := &systemService{
		healthRepo: deps.HealthRepository,
		clock:      func() time.Time { return clock().UTC() },
		build:      deps.Build,
		optional:   make(map[string]struct{}, len(deps.OptionalChecks)),
		ttl:        deps.CacheTTL,
	}
	if svc.build.StartedAt.IsZero() {
		svc.build.StartedAt = svc.clock()
	}
	for _, name := range deps.OptionalChecks {
		if name = strings.TrimSpace(name); name != "" {
			svc.optional[name] = struct{}{}
		}
	}
	return svc, nil
}

// HealthReport collects dependency checks. Concurrent callers share one probe and, when a
// cache TTL is set, a fresh report is served from memory.
func (s *systemService) HealthReport(ctx context.Context) (SystemHealthReport, error) {
	if report, ok := s.fromCache(); ok {
		return report, nil
	}
	v, err, _ := s.probes.Do("health", func() (any, error) {
		return s.collect(ctx)
	})
	if err != nil {
		return SystemHealthReport{}, err
	}
	return cloneReport(v.(SystemHealthReport)), nil
}

func (s *systemService) fromCache() (SystemHealthReport, bool) {
	if s.ttl == 0 {
		return SystemHealthReport{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedAt.IsZero() || s.clock().Sub(s.cachedAt) >= s.ttl {
		return SystemHealthReport{}, false
	}
	report := cloneReport(s.cached)
	report.Uptime = s.clock().Sub(s.build.StartedAt)
	return report, true
}

func (s *systemService) collect(ctx context.Context) (SystemHealthReport, error) {
	report, err := s.healthRepo.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, err
	}
	now := s.clock()
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = now
	} else {
		report.GeneratedAt = report.GeneratedAt.UTC()
	}
	if strings.TrimSpace(report.Version) == "" {
		report.Version = s.build.Version
	}
	if strings.TrimSpace(report.CommitSHA) == "" {
		report.CommitSHA = s.build.CommitSHA
	}
	if strings.TrimSpace(report.Environment) == "" {
		report.Environment = s.build.Environment
	}
	if report.Uptime <= 0 {
		report.Uptime = now.Sub(s.build.StartedAt)
	}
	if report.Checks == nil {
		report.Checks = map[string]domain.SystemHealthCheck{}
	}
	if strings.TrimSpace(report.Status) == "" {
		report.Status = s.overallStatus(report.Checks)
	}

	if s.ttl > 0 {
		s.mu.Lock()
		s.cached = cloneReport(report)
		s.cachedAt = now
		s.mu.Unlock()
	}
	return report, nil
}

func (s *systemService) overallStatus(checks map[string]domain.SystemHealthCheck) string {
	status := domain.HealthStatusOK
	for name, check := range checks {
		if check.Status == domain.HealthStatusOK || check.Status == "" {
			continue
		}
		if _, optional := s.optional[name]; !optional {
			return domain.HealthStatusError
		}
		status = domain.HealthStatusDegraded
	}
	return status
}

func cloneReport(report SystemHealthReport) SystemHealthReport {
	checks := make(map[string]domain.SystemHealthCheck, len(report.Checks))
	for name, check := range report.Checks {
		checks[name] = check
	}
	report.Checks = checks
	return report
}
