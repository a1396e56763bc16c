package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codeatpanorama/vision-flow/internal/models"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	points []*write.Point
	err    error
}

func (w *recordingWriter) WritePoint(_ context.Context, point ...*write.Point) error {
	if w.err != nil {
		return w.err
	}
	w.points = append(w.points, point...)
	return nil
}

func TestRecordTaskRun(t *testing.T) {
	writer := &recordingWriter{}
	client := &InfluxDBClient{writer: writer}
	finished := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	err := client.RecordTaskRun(context.Background(), models.TaskRun{
		TaskID:     "abc",
		DocumentID: "doc-1",
		Type:       models.TaskTypeReport,
		Status:     models.TaskStatusCompleted,
		Duration:   1500 * time.Millisecond,
		Pages:      6,
		Checks:     3,
		FinishedAt: finished,
	})
	require.NoError(t, err)
	require.Len(t, writer.points, 1)

	p := writer.points[0]
	assert.Equal(t, "task_run", p.Name())
	assert.Equal(t, finished, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"type": "REPORT", "status": "COMPLETED"}, tags)

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(1500), fields["duration_ms"])
	assert.Equal(t, int64(3), fields["checks"])
	assert.Equal(t, "doc-1", fields["document_id"])
}

func TestRecordTaskRunWriteError(t *testing.T) {
	client := &InfluxDBClient{writer: &recordingWriter{err: errors.New("unauthorized")}}
	err := client.RecordTaskRun(context.Background(), models.TaskRun{Type: models.TaskTypeValidate})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}
