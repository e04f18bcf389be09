package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func newStubbedPublisher(err error) (*KafkaPublisher, map[string]*stubWriter) {
	writers := make(map[string]*stubWriter)
	publisher := NewKafkaPublisher([]string{"localhost:9092"}, "tracker", WithWriterFactory(func(topic string) MessageWriter {
		w := &stubWriter{err: err}
		writers[topic] = w
		return w
	}))
	return publisher, writers
}

func TestTopicRouting(t *testing.T) {
	publisher, _ := newStubbedPublisher(nil)

	topic, err := publisher.Topic(TypeUserCreated)
	require.NoError(t, err)
	require.Equal(t, "tracker.users", topic)

	topic, err = publisher.Topic(TypeExerciseLogged)
	require.NoError(t, err)
	require.Equal(t, "tracker.exercises", topic)

	_, err = publisher.Topic("user.deleted")
	require.Error(t, err)
}

func TestPublishWritesKeyedJSON(t *testing.T) {
	publisher, writers := newStubbedPublisher(nil)
	before := testutil.ToFloat64(deliveredCounter.WithLabelValues(TypeExerciseLogged))

	event := ExerciseLogged{
		ExerciseID:  "ex-1",
		UserID:      "user-1",
		Username:    "alice",
		Description: "run",
		Duration:    30,
		Date:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		OccurredAt:  time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.Publish(context.Background(), event))

	writer := writers["tracker.exercises"]
	require.NotNil(t, writer)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	require.Equal(t, "user-1", string(msg.Key))
	require.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte(TypeExerciseLogged)})

	var decoded ExerciseLogged
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, event, decoded)

	require.Equal(t, before+1, testutil.ToFloat64(deliveredCounter.WithLabelValues(TypeExerciseLogged)))
}

func TestPublishReusesWriterPerTopic(t *testing.T) {
	publisher, writers := newStubbedPublisher(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, publisher.Publish(ctx, UserCreated{UserID: "u", Username: "alice"}))
	}
	require.Len(t, writers, 1)
	require.Len(t, writers["tracker.users"].messages, 3)

	require.NoError(t, publisher.Close())
	require.True(t, writers["tracker.users"].closed)
}

func TestPublishFailureIsCounted(t *testing.T) {
	publisher, _ := newStubbedPublisher(errors.New("leader not available"))
	before := testutil.ToFloat64(failedCounter.WithLabelValues(TypeUserCreated))

	err := publisher.Publish(context.Background(), UserCreated{UserID: "u", Username: "alice"})
	require.ErrorContains(t, err, "leader not available")
	require.Equal(t, before+1, testutil.ToFloat64(failedCounter.WithLabelValues(TypeUserCreated)))
}

func TestNoopPublisher(t *testing.T) {
	var publisher Publisher = NoopPublisher{}
	require.NoError(t, publisher.Publish(context.Background(), UserCreated{}))
	require.NoError(t, publisher.Close())
}
