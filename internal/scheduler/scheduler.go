// Package scheduler runs the full pipeline on a cron spec.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"skillpulse/internal/pipeline"

	"github.com/robfig/cron/v3"
)

type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *log.Logger
}

// New returns a Scheduler for spec, e.g. "@every 6h" or "0 */6 * * *". Ticks
// that arrive while the previous run is still going are skipped.
func New(spec string, job Job, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		spec:   strings.TrimSpace(spec),
		job:    job,
		logger: logger,
	}
}

func (s *Scheduler) Enabled() bool {
	return s != nil && s.spec != ""
}

// Start registers the job and starts the cron loop. An empty spec leaves the
// scheduler idle.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.Printf("scheduler status=disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("scheduler: invalid spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Printf("scheduler status=started spec=%q", s.spec)
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Printf("scheduler status=stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	start := time.Now()
	s.logger.Printf("scheduler status=tick spec=%q", s.spec)
	err := s.job(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.logger.Printf("scheduler level=warn status=skipped reason=run_in_progress")
	case err != nil:
		s.logger.Printf("scheduler level=error status=failed duration=%s err=%v", time.Since(start), err)
	default:
		s.logger.Printf("scheduler status=finished duration=%s", time.Since(start))
	}
}
