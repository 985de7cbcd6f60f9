package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeSyncPostingStatus  = "convocatoria:sync_status"
	TypeSubmissionReceived = "tramite:received"
)

// Queue names, mirrored in the worker's queue weights
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	SubmissionID string `json:"submission_id,omitempty"`
}

// NewSyncPostingStatusTask creates a task that moves convocatorias along their
// date-driven lifecycle
func NewSyncPostingStatusTask() *asynq.Task {
	return asynq.NewTask(TypeSyncPostingStatus, nil, asynq.Queue(QueueLow))
}

// NewSubmissionReceivedTask creates a task acknowledging a new trámite
func NewSubmissionReceivedTask(submissionID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		SubmissionID: submissionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSubmissionReceived, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
