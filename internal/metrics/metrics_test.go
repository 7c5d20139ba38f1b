package metrics

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordsToMeter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("test")
	ctx := context.Background()

	m, err := New(meter, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)

	m.RecordStudentCreated(ctx)
	m.RecordStudentCreated(ctx)
	m.RecordLogin(ctx, false)
	m.Database.RecordQuery(ctx, "insert", "students", time.Millisecond, errors.New("boom"))
	m.Events.RecordPublish(ctx, "nats", "student.created", time.Millisecond, nil)
	require.NoError(t, m.Health.RegisterDependencies(meter, "postgres"))
	m.Health.RecordDependencyCheck(ctx, "postgres", time.Millisecond, nil)
	_, err = RegisterRuntimeMetrics(meter)
	require.NoError(t, err)

	got := collect(t, reader)
	assert.Contains(t, got, "runtime.go.goroutines")
	assert.Equal(t, int64(2), sumOf(t, got["student_registry.students.created"]))
	assert.Equal(t, int64(1), sumOf(t, got["student_registry.auth.logins"]))
	assert.Equal(t, int64(1), sumOf(t, got["db.query.errors"]))
	assert.Equal(t, int64(1), sumOf(t, got["messaging.messages.published"]))

	up, ok := got["dependency.up"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, up.DataPoints, 1)
	assert.Equal(t, int64(1), up.DataPoints[0].Value)
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	var m *Metrics
	m.RecordStudentCreated(ctx)
	m.RecordLogin(ctx, true)

	mock := NewMock()
	mock.RecordStudentDeleted(ctx)
	mock.Database.RecordQuery(ctx, "select", "students", time.Millisecond, nil)
	mock.Events.RecordPublish(ctx, "kafka", "student.deleted", time.Millisecond, errors.New("x"))
	mock.Health.RecordDependencyCheck(ctx, "postgres", time.Millisecond, nil)
	assert.NoError(t, mock.Database.RegisterDB(nil, nil))
}
