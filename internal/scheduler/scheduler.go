package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Niiaks/Ledgerly/internal/middleware"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on cron schedules. A job still running when its next
// tick arrives is skipped for that tick.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
	ctx  context.Context
}

func New(log zerolog.Logger) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: l}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: l,
		ctx: context.Background(),
	}
}

// Start runs the scheduler until Stop. Jobs receive a child of ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = middleware.WithLogger(ctx, &s.log)
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job on a standard five-field cron spec or a descriptor
// such as "@every 15m".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(job); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("Job failed")
		}
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

// RunNow executes a job immediately (outside schedule). Each run gets its
// own run ID, used as the correlation ID of what the job writes.
func (s *Scheduler) RunNow(job Job) error {
	runID := middleware.NewRequestID()
	l := s.log.With().Str("job", job.Name()).Str("run_id", runID).Logger()
	ctx := middleware.WithLogger(middleware.WithRequestID(s.ctx, runID), &l)

	l.Debug().Msg("Running job")
	if err := job.Run(ctx); err != nil {
		return err
	}
	l.Debug().Msg("Job completed")
	return nil
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
