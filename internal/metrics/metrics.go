package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics
	Health   *HealthMetrics
	Events   *EventMetrics
	Grpc     *GrpcMetrics

	studentsCreated    metric.Int64Counter
	studentsUpdated    metric.Int64Counter
	studentsDeleted    metric.Int64Counter
	studentsViewed     metric.Int64Counter
	studentsListViewed metric.Int64Counter
	logins             metric.Int64Counter
}

func New(meter metric.Meter, logger *slog.Logger) (*Metrics, error) {
	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	health, err := NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	eventMetrics, err := NewEventMetrics(meter)
	if err != nil {
		return nil, err
	}

	grpcMetrics, err := NewGrpcMetrics(meter)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		Database: database,
		Health:   health,
		Events:   eventMetrics,
		Grpc:     grpcMetrics,
	}

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&m.studentsCreated, "student_registry.students.created", "Total number of students created", "{student}"},
		{&m.studentsUpdated, "student_registry.students.updated", "Total number of students updated", "{student}"},
		{&m.studentsDeleted, "student_registry.students.deleted", "Total number of students deleted", "{student}"},
		{&m.studentsViewed, "student_registry.students.viewed", "Total number of students viewed", "{view}"},
		{&m.studentsListViewed, "student_registry.students.list_viewed", "Total number of times students list was viewed", "{view}"},
		{&m.logins, "student_registry.auth.logins", "Login attempts by outcome", "{attempt}"},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("metrics collectors initialized successfully")
	return m, nil
}

// NewMock creates a no-op Metrics instance for testing.
// The returned Metrics will safely ignore all Record* calls.
func NewMock() *Metrics {
	return &Metrics{
		Database: &DatabaseMetrics{},
		Health:   &HealthMetrics{},
		Events:   &EventMetrics{},
		Grpc:     &GrpcMetrics{},
	}
}

func add(ctx context.Context, c metric.Int64Counter, opts ...metric.AddOption) {
	if c != nil {
		c.Add(ctx, 1, opts...)
	}
}

func (m *Metrics) RecordStudentCreated(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsCreated)
	}
}

func (m *Metrics) RecordStudentUpdated(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsUpdated)
	}
}

func (m *Metrics) RecordStudentDeleted(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsDeleted)
	}
}

func (m *Metrics) RecordStudentViewed(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsViewed)
	}
}

func (m *Metrics) RecordStudentsListViewed(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsListViewed)
	}
}

func (m *Metrics) RecordLogin(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	add(ctx, m.logins, metric.WithAttributes(attribute.String("outcome", outcome)))
}
