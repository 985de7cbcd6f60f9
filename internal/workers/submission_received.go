package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ugel-satipo/portal/internal/models"
	"github.com/ugel-satipo/portal/internal/tasks"
)

// HandleSubmissionReceived records the intake acknowledgement of a new trámite.
// Re-delivery of the same task is a no-op once the acknowledgement exists.
func HandleSubmissionReceived(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", asynq.SkipRetry)
	}

	var submission models.Submission
	if err := db.WithContext(ctx).Where("id = ?", payload.SubmissionID).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Str("tramite_id", payload.SubmissionID).Msg("Tramite no longer exists, dropping acknowledgement")
			return fmt.Errorf("tramite %s not found: %w", payload.SubmissionID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load tramite: %w", err)
	}

	if submission.AcknowledgedAt != nil {
		logger.Debug().Str("tramite_id", submission.ID).Msg("Acknowledgement already recorded")
		return nil
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&submission).Update("acknowledged_at", now).Error; err != nil {
		return fmt.Errorf("failed to record acknowledgement: %w", err)
	}

	logger.Info().
		Str("tramite_id", submission.ID).
		Str("expediente", submission.FileNumber).
		Str("email", submission.Email).
		Msg("Tramite acknowledgement recorded")
	return nil
}
