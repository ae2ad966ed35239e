package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/operion-canvas/pkg/channels/kafka"
	"github.com/dukex/operion-canvas/pkg/eventbus"
	"github.com/dukex/operion-canvas/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := kafkaTc.Run(ctx, "confluentinc/confluent-local:7.7.0", testcontainers.WithEnv(map[string]string{
		"KAFKA_CREATE_TOPICS": "true",
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(context.Background()))
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0

	admin, err := sarama.NewClusterAdmin(brokers, config)
	require.NoError(t, err)

	defer func() { _ = admin.Close() }()

	err = admin.CreateTopic(events.Topic, &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}, false)
	require.NoError(t, err)

	return brokers[0]
}

func TestKafkaEventBus_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Kafka integration test in short mode")
	}

	broker := setupKafka(t)

	pub, sub, err := kafka.CreateChannel(watermill.NopLogger{}, "canvas-test", []string{broker})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	received := make(chan *events.GraphSaved, 1)

	require.NoError(t, bus.Handle(events.GraphSavedEvent, func(_ context.Context, event eventbus.Event) error {
		select {
		case received <- event.(*events.GraphSaved):
		default:
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	// The subscriber starts at the newest offset, so publish until the group is assigned.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		err := bus.Publish(ctx, "graph-1", events.GraphSaved{
			BaseEvent: events.NewBaseEvent(events.GraphSavedEvent, "graph-1"),
			Revision:  7,
			Nodes:     2,
		})
		require.NoError(t, err)

		select {
		case got := <-received:
			assert.Equal(t, "graph-1", got.GraphID)
			assert.Equal(t, uint64(7), got.Revision)

			return
		case <-ctx.Done():
			t.Fatal("event not delivered")
		case <-ticker.C:
		}
	}
}
