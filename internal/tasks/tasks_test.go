package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionReceivedPayload(t *testing.T) {
	task, err := NewSubmissionReceivedTask("01HZX")
	require.NoError(t, err)
	assert.Equal(t, TypeSubmissionReceived, task.Type())

	payload, err := ParseTaskPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "01HZX", payload.SubmissionID)
}

func TestSyncPostingStatusTask(t *testing.T) {
	task := NewSyncPostingStatusTask()
	assert.Equal(t, TypeSyncPostingStatus, task.Type())
	assert.Empty(t, task.Payload())
}
