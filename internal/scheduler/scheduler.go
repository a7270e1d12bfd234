package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner is the part of the pipeline the scheduler drives
type Runner interface {
	RunDaily(ctx context.Context) error
	Injuries(ctx context.Context) (int, error)
}

// Scheduler runs the daily pipeline and the injury refresh on cron schedules.
// A job that is still running when its next tick arrives is skipped.
type Scheduler struct {
	runner     Runner
	dailyCron  string
	injuryCron string
	cron       *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(runner Runner, dailyCron, injuryCron string) *Scheduler {
	return &Scheduler{
		runner:     runner,
		dailyCron:  dailyCron,
		injuryCron: injuryCron,
		cron: cron.New(
			cron.WithLogger(cronLogger{}),
			cron.WithChain(
				cron.Recover(cronLogger{}),
				cron.SkipIfStillRunning(cronLogger{}),
			),
		),
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.dailyCron, func() {
		log.Info().Msg("Running daily pipeline...")
		if err := s.runner.RunDaily(ctx); err != nil {
			log.Error().Err(err).Msg("Daily pipeline failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule daily pipeline: %w", err)
	}

	if s.injuryCron != "" {
		if _, err := s.cron.AddFunc(s.injuryCron, func() {
			log.Info().Msg("Refreshing injuries...")
			if _, err := s.runner.Injuries(ctx); err != nil {
				log.Error().Err(err).Msg("Injury refresh failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule injury refresh: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	log.Info().
		Str("daily", s.dailyCron).
		Str("injuries", s.injuryCron).
		Msg("Jobs scheduled")

	return nil
}

// Stop stops the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	log.Info().Msg("Stopping scheduler...")
	<-s.cron.Stop().Done()
	s.running = false
	log.Info().Msg("Scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger routes cron's own messages through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
