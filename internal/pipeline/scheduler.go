package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Runner is a single scrape pass.
type Runner interface {
	Run(ctx context.Context) (Summary, error)
}

// Scheduler runs a Runner on a cron schedule until its context ends.
// Overlapping ticks are skipped.
type Scheduler struct {
	schedule   cron.Schedule
	spec       string
	runner     Runner
	logger     *slog.Logger
	runOnStart bool
}

// NewScheduler parses spec (five-field cron or a descriptor such as
// "@every 6h").
func NewScheduler(spec string, runner Runner, logger *slog.Logger, runOnStart bool) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		schedule:   sched,
		spec:       spec,
		runner:     runner,
		logger:     logger,
		runOnStart: runOnStart,
	}, nil
}

// Start blocks until ctx is cancelled and any in-flight run has returned.
func (s *Scheduler) Start(ctx context.Context) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})))
	c.Schedule(s.schedule, cron.FuncJob(func() { s.runOnce(ctx) }))

	if s.runOnStart {
		go s.runOnce(ctx)
	}

	s.logger.Info("scheduler started", "schedule", s.spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.runner.Run(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			s.logger.Info("skipping scheduled run, previous run still active")
			return
		}
		s.logger.Error("scheduled run failed", "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
