package comparison

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"schemasync/internal/domain"
)

// Runner executes one comparison. Implemented by Service.
type Runner interface {
	Run(ctx context.Context, req Request) (*Outcome, error)
}

var _ Runner = (*Service)(nil)

// Job is a comparison run on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Request  Request
}

// Scheduler runs comparison jobs on cron schedules. A job still running when
// its next tick fires is skipped for that tick.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	jobs    []Job
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID // job name → cron entry
}

// NewScheduler creates a scheduler for jobs.
func NewScheduler(runner Runner, jobs []Job, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner:  runner,
		jobs:    jobs,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers every job and starts the cron scheduler. Jobs with an
// invalid schedule are logged and skipped; it is an error if none remain.
// Scheduled runs use ctx, so cancelling it aborts in-flight collections.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		entryID, err := s.cron.AddFunc(job.Schedule, func() { s.trigger(ctx, job) })
		if err != nil {
			s.logger.Warn("invalid cron schedule",
				"job", job.Name,
				"schedule", job.Schedule,
				"error", err,
			)
			continue
		}
		s.entries[job.Name] = entryID
		s.logger.Info("scheduled comparison", "job", job.Name, "schedule", job.Schedule)
	}
	if len(s.entries) == 0 {
		return domain.ErrValidation("no comparison job has a valid schedule")
	}

	s.cron.Start()
	s.logger.Info("comparison scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("comparison scheduler stopped")
}

// RunAll triggers every job once, in order, outside the schedule.
func (s *Scheduler) RunAll(ctx context.Context) {
	for _, job := range s.jobs {
		s.trigger(ctx, job)
	}
}

func (s *Scheduler) trigger(ctx context.Context, job Job) {
	out, err := s.runner.Run(ctx, job.Request)
	if err != nil {
		s.logger.Warn("scheduled comparison failed", "job", job.Name, "error", err)
		return
	}
	s.logger.Info("scheduled comparison finished",
		"job", job.Name,
		"run_id", out.Run.ID,
		"status", out.Run.Status,
		"differences", out.Run.Differences,
	)
}
