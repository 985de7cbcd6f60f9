package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// NextFileNumber returns the next expediente number for the year of now,
// formatted EXP-YYYY-NNNNNN. Call it inside the transaction that inserts the
// submission so the unique index arbitrates concurrent intake.
func NextFileNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("EXP-%d-", now.Year())

	var count int64
	if err := tx.Model(&Submission{}).Where("file_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return "", fmt.Errorf("failed to count submissions: %w", err)
	}
	return fmt.Sprintf("%s%06d", prefix, count+1), nil
}
