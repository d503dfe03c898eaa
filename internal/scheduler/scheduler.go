// Package scheduler runs periodic background jobs - group member-count
// refresh today, with room for more - on a cron schedule, grounded on the
// same robfig/cron wrapper used elsewhere in the example pack for
// trading-bot background work.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one periodic unit of work. Name is used only for logging.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler wraps a cron.Cron, logging each job's outcome and never
// letting one job's failure stop the others from running on schedule.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New builds a Scheduler with second-level cron precision.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// AddJob registers job on the given cron schedule (6-field expressions with
// a leading seconds field, or descriptors such as "@every 1h"; standard
// 5-field expressions are rejected by the seconds-enabled parser).
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx := context.Background()
		s.log.Debug().Str("job", job.Name()).Msg("running scheduled job")
		if err := job.Run(ctx); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("scheduled job failed")
			return
		}
		s.log.Debug().Str("job", job.Name()).Msg("scheduled job completed")
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// Start begins running registered jobs on their schedules. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for in-flight job runs to finish, then returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}
