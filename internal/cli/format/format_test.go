package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDate(t *testing.T) {
	d := time.Date(2025, time.March, 5, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "05 de marzo de 2025", Date(d))
	assert.Equal(t, "05/03/2025", ShortDate(d))
	assert.Equal(t, "—", Date(time.Time{}))
	assert.Equal(t, "—", ShortDate(time.Time{}))
	assert.Equal(t, "—", DatePtr(nil))
	assert.Equal(t, "05 de marzo de 2025", DatePtr(&d))
}

func TestFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, ""},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{10 << 20, "10.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileSize(tt.bytes), "FileSize(%d)", tt.bytes)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", Truncate("corto", 10))
	assert.Equal(t, "Reasi...", Truncate("Reasignación", 5))
	assert.Equal(t, "", Truncate("", 3))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "En Proceso", Label(SubmissionStatusLabels, "EN_PROCESO"))
	assert.Equal(t, "Pago de Haberes", Label(SubmissionTypeLabels, "PAGO_HABERES"))
	assert.Equal(t, "DESCONOCIDO", Label(PostingStatusLabels, "DESCONOCIDO"))
}
