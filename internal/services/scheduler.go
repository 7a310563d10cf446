package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultJobTimeout = 5 * time.Minute

// ScheduledJob is a recurring task. Spec uses the standard five field cron syntax or
// descriptors such as "@every 1m".
type ScheduledJob struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// SchedulerDeps wires the scheduler. CronLogger receives cron's own diagnostics.
type SchedulerDeps struct {
	Jobs       []ScheduledJob
	Logger     EventLogger
	CronLogger cron.Logger
	Clock      func() time.Time
}

// Scheduler runs jobs in process on their cron schedule. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger EventLogger
	clock  func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler validates every job spec and registers the jobs.
func NewScheduler(deps SchedulerDeps) (*Scheduler, error) {
	cronLogger := deps.CronLogger
	if cronLogger == nil {
		cronLogger = cron.DiscardLogger
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
		clock:  clock,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, job := range deps.Jobs {
		if strings.TrimSpace(job.Name) == "" || job.Run == nil {
			cancel()
			return nil, errors.New("scheduler: job name and run func are required")
		}
		if _, err := s.cron.AddFunc(job.Spec, s.wrap(job)); err != nil {
			cancel()
			return nil, fmt.Errorf("scheduler: job %s: %w", job.Name, err)
		}
	}
	return s, nil
}

func (s *Scheduler) wrap(job ScheduledJob) func() {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()
		started := s.clock()
		err := job.Run(ctx)
		fields := map[string]any{
			"job":        job.Name,
			"durationMs": s.clock().Sub(started).Milliseconds(),
		}
		if err != nil {
			fields["error"] = err.Error()
			s.logger(ctx, "scheduler.job_failed", fields)
			return
		}
		s.logger(ctx, "scheduler.job_completed", fields)
	}
}

// Start begins running jobs in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
