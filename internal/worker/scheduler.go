package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Scheduler triggers full suggestion refreshes on a cron schedule.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

// NewScheduler creates a UTC scheduler.
func NewScheduler(logger zerolog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(gocronLogger{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Start schedules job.Run on the job's cron expression and blocks until ctx
// is done. ctx also bounds every run.
func (s *Scheduler) Start(ctx context.Context, job *RefreshJob) error {
	if job.config.Schedule == "" {
		s.logger.Info().Msg("scheduled refresh disabled")
		<-ctx.Done()
		return nil
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(job.config.Schedule, false),
		gocron.NewTask(func() {
			if _, err := job.Run(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled refresh failed")
			}
		}),
		gocron.WithName("suggestions_refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling refresh %q: %w", job.config.Schedule, err)
	}

	s.logger.Info().Str("cron", job.config.Schedule).Msg("refresh scheduled")
	s.scheduler.Start()

	<-ctx.Done()
	return s.scheduler.Shutdown()
}

// gocronLogger adapts zerolog to gocron's key-value logger.
type gocronLogger struct {
	logger zerolog.Logger
}

func (l gocronLogger) Debug(msg string, args ...any) { l.logger.Debug().Fields(args).Msg(msg) }
func (l gocronLogger) Info(msg string, args ...any)  { l.logger.Info().Fields(args).Msg(msg) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.logger.Warn().Fields(args).Msg(msg) }
func (l gocronLogger) Error(msg string, args ...any) { l.logger.Error().Fields(args).Msg(msg) }
