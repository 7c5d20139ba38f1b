// Package events publishes student lifecycle events to a message broker.
package events

import (
	"context"
	"time"
)

const (
	StudentCreated = "student.created"
	StudentUpdated = "student.updated"
	StudentDeleted = "student.deleted"
)

type Event struct {
	Type       string    `json:"type"`
	StudentID  string    `json:"studentId"`
	IDSv       int       `json:"idSv,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher interface for messaging (NATS/Kafka)
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
