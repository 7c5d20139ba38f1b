package events

import (
	"context"
	"time"

	"student-registry/internal/metrics"
)

// Instrument records publish count, latency and failures of p.
func Instrument(p Publisher, broker string, m *metrics.EventMetrics) Publisher {
	return &instrumented{next: p, broker: broker, metrics: m}
}

type instrumented struct {
	next    Publisher
	broker  string
	metrics *metrics.EventMetrics
}

func (i *instrumented) Publish(ctx context.Context, event Event) error {
	start := time.Now()
	err := i.next.Publish(ctx, event)
	i.metrics.RecordPublish(ctx, i.broker, event.Type, time.Since(start), err)
	return err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
