package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"student-registry/internal/events"
	"student-registry/internal/metrics"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	event := events.Event{
		Type:       events.StudentCreated,
		StudentID:  "0f8fad5b-d9cb-469f-a165-70867728950e",
		IDSv:       1234,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("Publish_SendsJSONPayload", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, events.NewKafkaConfig())
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			var got events.Event
			if err := json.Unmarshal(val, &got); err != nil {
				return err
			}
			if got.Type != event.Type || got.StudentID != event.StudentID || got.IDSv != event.IDSv {
				return errors.New("unexpected event payload")
			}
			return nil
		})

		publisher := events.NewKafkaPublisherWithProducer(producer, "students", logger)
		require.NoError(t, publisher.Publish(ctx, event))
		require.NoError(t, publisher.Close())
	})

	t.Run("Publish_ReturnsBrokerError", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, events.NewKafkaConfig())
		producer.ExpectSendMessageAndFail(errors.New("broker unavailable"))

		publisher := events.NewKafkaPublisherWithProducer(producer, "students", logger)
		err := publisher.Publish(ctx, event)
		assert.ErrorContains(t, err, "broker unavailable")
		require.NoError(t, publisher.Close())
	})
}

func TestInstrument(t *testing.T) {
	producer := mocks.NewSyncProducer(t, events.NewKafkaConfig())
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndFail(errors.New("broker unavailable"))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	p := events.Instrument(events.NewKafkaPublisherWithProducer(producer, "students", logger), "kafka", metrics.NewMock().Events)

	ctx := context.Background()
	assert.NoError(t, p.Publish(ctx, events.Event{Type: events.StudentCreated, StudentID: "a"}))
	assert.Error(t, p.Publish(ctx, events.Event{Type: events.StudentCreated, StudentID: "a"}))
	assert.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), events.Event{Type: events.StudentDeleted}))
	assert.NoError(t, p.Close())
}
