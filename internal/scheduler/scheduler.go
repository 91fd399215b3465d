// Package scheduler runs the periodic maintenance jobs: expiring postings
// past their deadline and re-scanning waitlists for free seats.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named periodic task. Run reports how many rows it changed.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (int, error)
}

// PostingExpirer expires open postings whose deadline passed.
type PostingExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// VacancyScanner promotes waitlisted applicants into free seats.
type VacancyScanner interface {
	RescanVacancies(ctx context.Context) (int, error)
}

// ExpirePostings is the job that marks due postings expired.
func ExpirePostings(spec string, postings PostingExpirer) Job {
	return Job{Name: "expire-postings", Spec: spec, Run: postings.ExpireDue}
}

// RescanWaitlists is the job that fills seats a failed withdrawal left empty.
func RescanWaitlists(spec string, applications VacancyScanner) Job {
	return Job{Name: "rescan-waitlists", Spec: spec, Run: applications.RescanVacancies}
}

// Scheduler wraps robfig/cron. Overlapping runs of one job are skipped and a
// panicking job is recovered and logged.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Scheduler for the given jobs.
func New(logger *slog.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cl := cronLogger{logger: logger.With("component", "scheduler")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			// Recover must sit inside SkipIfStillRunning, which hands its
			// token back only when the wrapped job returns normally.
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		jobs:    jobs,
		logger:  logger,
		timeout: time.Minute,
	}
}

// Start registers every job and starts the cron loop. ctx bounds job runs.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		if _, err := s.cron.AddFunc(job.Spec, func() { s.run(ctx, job) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop halts scheduling. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.logger.Info("scheduler stopped")
	return ctx
}

// RunNow runs the named job once, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (int, error) {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.run(ctx, job)
		}
	}
	return 0, fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) run(ctx context.Context, job Job) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("job failed", "job", job.Name, "error", err, "duration", time.Since(start))
		return n, err
	}
	s.logger.Info("job finished", "job", job.Name, "changed", n, "duration", time.Since(start))
	return n, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
