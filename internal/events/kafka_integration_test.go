//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func TestKafkaPublisherDeliversUserCreated(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkaContainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkaContainer.WithClusterID("exercise-tracker"),
		testcontainers.WithEnv(map[string]string{"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true"}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	publisher := NewKafkaPublisher(brokers, "it")
	t.Cleanup(func() { _ = publisher.Close() })

	event := UserCreated{UserID: "user-1", Username: "alice", OccurredAt: time.Now().UTC().Truncate(time.Second)}
	require.Eventually(t, func() bool {
		return publisher.Publish(ctx, event) == nil
	}, time.Minute, 2*time.Second)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     "it.users",
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "user-1", string(msg.Key))

	var decoded UserCreated
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, event, decoded)
}
