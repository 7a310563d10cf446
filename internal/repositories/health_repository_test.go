package repositories

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
)

func okProbe(context.Context) error { return nil }

func TestDependencyHealthRepositoryAllHealthy(t *testing.T) {
	now := time.Date(2025, time.April, 7, 6, 0, 0, 0, time.UTC)
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{Name: "firestore", Check: okProbe},
		{Name: " secretManager ", Check: okProbe},
	}, WithDependencyClock(func() time.Time { return now }))
	require.NoError(t, err)

	report, err := repo.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.HealthStatusOK, report.Status)
	assert.Equal(t, now, report.GeneratedAt)
	require.Contains(t, report.Checks, "secretManager")
	for name, check := range report.Checks {
		assert.Equal(t, domain.HealthStatusOK, check.Status, name)
		assert.Equal(t, "ok", check.Detail, name)
		assert.Equal(t, now, check.CheckedAt, name)
	}
}

func TestDependencyHealthRepositoryClassifiesFailures(t *testing.T) {
	boom := errors.New("permission denied")
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{Name: "firestore", Check: okProbe},
		{Name: "secretManager", Check: func(context.Context) error { return boom }},
		{Name: "slow", Timeout: 5 * time.Millisecond, Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
		{Name: "ignores-context", Timeout: 5 * time.Millisecond, Check: func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			return nil
		}},
	}, WithProbeRetryDelay(0))
	require.NoError(t, err)

	report, err := repo.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.HealthStatusError, report.Status)
	assert.Equal(t, domain.HealthStatusOK, report.Checks["firestore"].Status)
	assert.Equal(t, "failed", report.Checks["secretManager"].Detail)
	assert.Equal(t, boom.Error(), report.Checks["secretManager"].Error)
	assert.Equal(t, "timeout", report.Checks["slow"].Detail)
	assert.Equal(t, "timeout", report.Checks["ignores-context"].Detail)
}

func TestDependencyHealthRepositoryRetriesFlakyProbe(t *testing.T) {
	var calls atomic.Int32
	repo, err := NewDependencyHealthRepository([]DependencyCheck{{
		Name:     "firestore",
		Attempts: 3,
		Check: func(context.Context) error {
			if calls.Add(1) < 3 {
				return errors.New("unavailable")
			}
			return nil
		},
	}}, WithProbeRetryDelay(time.Millisecond))
	require.NoError(t, err)

	report, err := repo.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.HealthStatusOK, report.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDependencyHealthRepositoryConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	probe := func(context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	}
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{Name: "a", Check: probe},
		{Name: "b", Check: probe},
		{Name: "c", Check: probe},
		{Name: "d", Check: probe},
	}, WithDependencyConcurrency(1))
	require.NoError(t, err)

	_, err = repo.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), peak.Load())
}

func TestNewDependencyHealthRepositoryRejectsInvalidChecks(t *testing.T) {
	cases := map[string][]DependencyCheck{
		"empty":     nil,
		"no name":   {{Name: "  ", Check: okProbe}},
		"no func":   {{Name: "firestore"}},
		"duplicate": {{Name: "a", Check: okProbe}, {Name: " a", Check: okProbe}},
	}
	for name, checks := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewDependencyHealthRepository(checks)
			require.Error(t, err)
		})
	}
}

func TestNewDependencyHealthRepositoryDoesNotMutateInput(t *testing.T) {
	checks := []DependencyCheck{{Name: " firestore ", Check: okProbe}}
	_, err := NewDependencyHealthRepository(checks)
	require.NoError(t, err)
	assert.Equal(t, " firestore ", checks[0].Name)
}
