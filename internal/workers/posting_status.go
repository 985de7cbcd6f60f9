package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ugel-satipo/portal/internal/models"
)

// HandleSyncPostingStatus moves convocatorias along their date-driven lifecycle
func HandleSyncPostingStatus(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	opened, closed, err := SyncPostingStatuses(db.WithContext(ctx), time.Now())
	if err != nil {
		return fmt.Errorf("failed to sync convocatoria status: %w", err)
	}

	if opened > 0 || closed > 0 {
		logger.Info().
			Int64("opened", opened).
			Int64("closed", closed).
			Msg("Convocatoria status synced")
	}
	return nil
}

// SyncPostingStatuses opens PROXIMA postings whose start date has arrived and
// closes PROXIMA or ABIERTA postings whose end date has passed. End dates are inclusive:
// a posting ending today stays open until tomorrow.
func SyncPostingStatuses(db *gorm.DB, now time.Time) (opened, closed int64, err error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	err = db.Transaction(func(tx *gorm.DB) error {
		closeResult := tx.Model(&models.JobPosting{}).
			Where("status IN ? AND ends_at < ?", []models.PostingStatus{models.PostingUpcoming, models.PostingOpen}, today).
			Update("status", models.PostingClosed)
		if closeResult.Error != nil {
			return closeResult.Error
		}
		closed = closeResult.RowsAffected

		openResult := tx.Model(&models.JobPosting{}).
			Where("status = ? AND starts_at <= ?", models.PostingUpcoming, now).
			Update("status", models.PostingOpen)
		if openResult.Error != nil {
			return openResult.Error
		}
		opened = openResult.RowsAffected
		return nil
	})
	return opened, closed, err
}
