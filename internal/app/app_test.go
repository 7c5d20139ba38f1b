package app

import (
	"log/slog"
	"os"
	"testing"

	"student-registry/internal/config"
	"student-registry/internal/events"

	"github.com/stretchr/testify/assert"
)

func TestNewPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	t.Run("Disabled", func(t *testing.T) {
		p := newPublisher(config.EventsConfig{}, logger)
		assert.IsType(t, events.NopPublisher{}, p)
	})

	t.Run("UnreachableNATSFallsBackToNop", func(t *testing.T) {
		p := newPublisher(config.EventsConfig{
			Driver: "nats",
			NATS:   config.NATSConfig{URL: "nats://127.0.0.1:1", Subject: "students"},
		}, logger)
		assert.IsType(t, events.NopPublisher{}, p)
	})
}
