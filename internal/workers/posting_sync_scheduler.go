package workers

import (
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ugel-satipo/portal/internal/tasks"
)

// Enqueuer is the part of asynq.Client the scheduler needs
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// StartPostingSyncScheduler enqueues a convocatoria status sync on every tick
// of spec (standard 5-field cron or a descriptor such as "@every 15m").
// The caller stops the returned cron on shutdown.
func StartPostingSyncScheduler(client Enqueuer, spec string, logger zerolog.Logger) (*cron.Cron, error) {
	scheduler := cron.New()

	if _, err := scheduler.AddFunc(spec, func() {
		enqueuePostingSync(client, logger)
	}); err != nil {
		return nil, fmt.Errorf("invalid convocatoria sync schedule %q: %w", spec, err)
	}

	// Run immediately on startup, then on schedule
	enqueuePostingSync(client, logger)
	scheduler.Start()

	if next := nextSyncTime(spec, time.Now()); next != nil {
		logger.Info().Str("schedule", spec).Time("next_sync_at", *next).Msg("Convocatoria sync scheduler started")
	}
	return scheduler, nil
}

func enqueuePostingSync(client Enqueuer, logger zerolog.Logger) {
	// Unique keeps a slow worker from piling up identical sync tasks
	info, err := client.Enqueue(tasks.NewSyncPostingStatusTask(), asynq.Unique(5*time.Minute))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Debug().Msg("Convocatoria sync already queued")
			return
		}
		logger.Error().Err(err).Msg("Failed to enqueue convocatoria sync task")
		return
	}

	logger.Debug().Str("task_id", info.ID).Msg("Convocatoria sync task enqueued")
}

// nextSyncTime calculates the next run of spec after from
func nextSyncTime(spec string, from time.Time) *time.Time {
	if spec == "" {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil
	}

	next := schedule.Next(from)
	return &next
}
