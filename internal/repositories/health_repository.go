package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	domain "github.com/quantum-portal/api/internal/domain"
)

const (
	defaultDependencyTimeout = 1500 * time.Millisecond
	defaultProbeRetryDelay   = 100 * time.Millisecond
)

// DependencyCheck is one readiness probe. Attempts above one retry the probe inside its timeout.
type DependencyCheck struct {
	Name     string
	Timeout  time.Duration
	Attempts uint
	Check    func(context.Context) error
}

// DependencyHealthOption customises the dependency-backed health repository.
type DependencyHealthOption func(*dependencyHealthRepository)

// WithDependencyTimeout sets the timeout for checks that do not carry their own.
func WithDependencyTimeout(timeout time.Duration) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if timeout > 0 {
			repo.defaultTimeout = timeout
		}
	}
}

func WithDependencyClock(clock func() time.Time) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if clock != nil {
			repo.now = clock
		}
	}
}

// WithDependencyConcurrency bounds how many probes run at once. Zero means unbounded.
func WithDependencyConcurrency(n int) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if n >= 0 {
			repo.concurrency = n
		}
	}
}

// WithProbeRetryDelay sets the base backoff between attempts of one probe.
func WithProbeRetryDelay(delay time.Duration) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if delay >= 0 {
			repo.retryDelay = delay
		}
	}
}

type dependencyHealthRepository struct {
	checks         []DependencyCheck
	defaultTimeout time.Duration
	retryDelay     time.Duration
	concurrency    int
	now            func() time.Time
}

var _ HealthRepository = (*dependencyHealthRepository)(nil)

// NewDependencyHealthRepository rejects empty, unnamed, duplicate or nil probes.
func NewDependencyHealthRepository(checks []DependencyCheck, opts ...DependencyHealthOption) (HealthRepository, error) {
	if len(checks) == 0 {
		return nil, errors.New("health repository: at least one dependency check is required")
	}
	normalized := make([]DependencyCheck, len(checks))
	seen := make(map[string]struct{}, len(checks))
	for i, check := range checks {
		check.Name = strings.TrimSpace(check.Name)
		switch _, dup := seen[check.Name]; {
		case check.Name == "":
			return nil, fmt.Errorf("health repository: check %d missing name", i)
		case check.Check == nil:
			return nil, fmt.Errorf("health repository: dependency %s missing check function", check.Name)
		case dup:
			return nil, fmt.Errorf("health repository: duplicate dependency %s", check.Name)
		}
		if check.Attempts == 0 {
			check.Attempts = 1
		}
		seen[check.Name] = struct{}{}
		normalized[i] = check
	}

	repo := &dependencyHealthRepository{
		checks:         normalized,
		defaultTimeout: defaultDependencyTimeout,
		retryDelay:     defaultProbeRetryDelay,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

// Collect runs the probes concurrently. Any failing probe marks the report as error; the
// service layer decides which failures only degrade readiness.
func (r *dependencyHealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	if ctx == nil {
		return domain.SystemHealthReport{}, errors.New("health repository: context is required")
	}

	results := make([]domain.SystemHealthCheck, len(r.checks))
	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, check := range r.checks {
		g.Go(func() error {
			results[i] = r.probe(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	report := domain.SystemHealthReport{
		Status:      domain.HealthStatusOK,
		Checks:      make(map[string]domain.SystemHealthCheck, len(results)),
		GeneratedAt: r.now(),
	}
	for i, result := range results {
		report.Checks[r.checks[i].Name] = result
		if result.Status != domain.HealthStatusOK {
			report.Status = domain.HealthStatusError
		}
	}
	return report, nil
}

func (r *dependencyHealthRepository) probe(ctx context.Context, check DependencyCheck) domain.SystemHealthCheck {
	timeout := check.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := r.now()
	err := retry.Do(
		func() error { return check.Check(probeCtx) },
		retry.Context(probeCtx),
		retry.Attempts(check.Attempts),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	end := r.now()

	result := domain.SystemHealthCheck{
		Status:    domain.HealthStatusOK,
		Detail:    "ok",
		Latency:   end.Sub(start),
		CheckedAt: end,
	}
	// A probe that ignores its context can return nil after the deadline.
	ctxErr := probeCtx.Err()
	if err == nil && ctxErr == nil {
		return result
	}
	if err == nil {
		err = ctxErr
	}
	result.Status = domain.HealthStatusError
	result.Error = err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctxErr, context.DeadlineExceeded):
		result.Detail = "timeout"
	case errors.Is(err, context.Canceled) || errors.Is(ctxErr, context.Canceled):
		result.Detail = "cancelled"
	default:
		result.Detail = "failed"
	}
	return result
}
