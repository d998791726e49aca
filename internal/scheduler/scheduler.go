// Package scheduler runs cron-driven compliance sweeps: registered
// diagram documents are periodically re-evaluated and each run appends
// a report to the store.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/voltlint/voltlint/internal/logging"
	"github.com/voltlint/voltlint/internal/session"
	"github.com/voltlint/voltlint/internal/store"
	"github.com/voltlint/voltlint/pkg/schema"
)

// DiagramEvaluator is the interface the scheduler uses to run sweeps.
// Satisfied by engine.Evaluator.
type DiagramEvaluator interface {
	Evaluate(ctx context.Context, d *schema.Diagram, load *schema.LoadContext) *schema.ComplianceResult
}

// DocumentValidator parses and validates raw diagram documents.
// Satisfied by validation.DiagramValidator.
type DocumentValidator interface {
	ValidateDocument(raw []byte) (*schema.Diagram, error)
}

// Scheduler polls the store for due sweep jobs and runs them.
type Scheduler struct {
	store     store.Store
	evaluator DiagramEvaluator
	validator DocumentValidator
	parser    cron.Parser
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	mu        sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]struct{} // job IDs currently executing (dedup)
}

// NewScheduler creates a new Scheduler.
func NewScheduler(s store.Store, evaluator DiagramEvaluator, validator DocumentValidator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:     s,
		evaluator: evaluator,
		validator: validator,
		parser:    cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:    logger,
		inflight:  make(map[string]struct{}),
	}
}

// Start launches the background sweep loop with a 60s ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	// Run an initial tick immediately.
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick checks all enabled jobs and runs those that are due.
func (s *Scheduler) tick(ctx context.Context) {
	enabled := true
	jobs, err := s.store.ListSweepJobs(ctx, store.SweepJobFilter{Enabled: &enabled})
	if err != nil {
		s.logger.Error("failed to list sweep jobs", slog.String("error", err.Error()))
		return
	}

	now := time.Now().UTC()
	for _, job := range jobs {
		if job.NextRunAt == nil || !job.NextRunAt.After(now) {
			if !s.tryAcquire(job.ID) {
				continue // already running (dedup)
			}
			if err := s.runJob(ctx, job, now); err != nil {
				s.logger.Error("failed to run sweep job",
					slog.String("job_id", job.ID),
					slog.String("error", err.Error()),
				)
			}
			s.releaseJob(job.ID)
		}
	}
}

// runJob evaluates a registered diagram, appends the report, and
// updates the job timestamps.
func (s *Scheduler) runJob(ctx context.Context, job *store.SweepJob, now time.Time) error {
	ctx = logging.WithDiagramID(ctx, job.DiagramID)
	logging.LogWith(ctx, s.logger).Info("running sweep job",
		slog.String("job_id", job.ID),
		slog.String("name", job.Name),
	)

	diagram, err := s.validator.ValidateDocument(job.Document)
	if err != nil {
		logging.LogWith(ctx, s.logger).Error("sweep document invalid",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return s.updateJob(ctx, job, now)
	}

	result := s.evaluator.Evaluate(ctx, diagram, nil)

	report, err := store.NewReport(job.DiagramID, session.ContentHash(diagram), result)
	if err != nil {
		return fmt.Errorf("build report for job %q: %w", job.ID, err)
	}
	if err := s.store.AppendReport(ctx, report); err != nil {
		return fmt.Errorf("append report for job %q: %w", job.ID, err)
	}

	logging.LogWith(ctx, s.logger).Info("sweep completed",
		slog.String("job_id", job.ID),
		slog.Int("score", result.Score),
		slog.Bool("compliant", result.Compliant),
	)
	return s.updateJob(ctx, job, now)
}

func (s *Scheduler) updateJob(ctx context.Context, job *store.SweepJob, now time.Time) error {
	nextRun, err := s.CalculateNextRun(job.CronExpr, now)
	if err != nil {
		return fmt.Errorf("calculate next run for job %q: %w", job.ID, err)
	}

	return s.store.UpdateSweepJob(ctx, job.ID, store.SweepJobUpdate{
		LastRunAt: &now,
		NextRunAt: &nextRun,
	})
}

// tryAcquire returns true and marks the job as in-flight if it is not already running.
func (s *Scheduler) tryAcquire(jobID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[jobID]; ok {
		return false
	}
	s.inflight[jobID] = struct{}{}
	return true
}

// releaseJob removes the job from the in-flight set.
func (s *Scheduler) releaseJob(jobID string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, jobID)
}

// CalculateNextRun computes the next run time for a cron expression.
func (s *Scheduler) CalculateNextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped")
	return nil
}

// RecoverMissed checks for jobs that missed their next_run_at and runs them once.
func (s *Scheduler) RecoverMissed(ctx context.Context) error {
	enabled := true
	jobs, err := s.store.ListSweepJobs(ctx, store.SweepJobFilter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("list missed jobs: %w", err)
	}

	now := time.Now().UTC()
	recovered := 0
	for _, job := range jobs {
		if job.NextRunAt != nil && job.NextRunAt.Before(now) {
			if !s.tryAcquire(job.ID) {
				continue
			}
			if err := s.runJob(ctx, job, now); err != nil {
				s.logger.Error("failed to recover missed job",
					slog.String("job_id", job.ID),
					slog.String("error", err.Error()),
				)
				s.releaseJob(job.ID)
				continue
			}
			s.releaseJob(job.ID)
			recovered++
		}
	}

	if recovered > 0 {
		s.logger.Info("recovered missed sweeps", slog.Int("count", recovered))
	}
	return nil
}
