package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher lazily manages one writer per topic. User events go to
// "<prefix>.users", exercise events to "<prefix>.exercises".
type KafkaPublisher struct {
	brokers   []string
	prefix    string
	newWriter func(topic string) MessageWriter

	mu      sync.Mutex
	writers map[string]MessageWriter
}

// KafkaOption configures a KafkaPublisher.
type KafkaOption func(*KafkaPublisher)

// WithWriterFactory overrides how per-topic writers are built.
func WithWriterFactory(factory func(topic string) MessageWriter) KafkaOption {
	return func(p *KafkaPublisher) {
		p.newWriter = factory
	}
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string, topicPrefix string, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		brokers: brokers,
		prefix:  topicPrefix,
		writers: make(map[string]MessageWriter),
	}
	p.newWriter = p.kafkaWriter
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Topic returns the topic an event type is routed to.
func (p *KafkaPublisher) Topic(eventType string) (string, error) {
	switch eventType {
	case TypeUserCreated:
		return p.prefix + ".users", nil
	case TypeExerciseLogged:
		return p.prefix + ".exercises", nil
	default:
		return "", fmt.Errorf("unknown event type: %s", eventType)
	}
}

// Publish encodes the event as JSON and writes it synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	topic, err := p.Topic(event.Type())
	if err != nil {
		recordFailed(event.Type())
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		recordFailed(event.Type())
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type())},
			{Key: "content_type", Value: []byte("application/json")},
		},
	}

	if err := p.writerForTopic(topic).WriteMessages(ctx, msg); err != nil {
		recordFailed(event.Type())
		return fmt.Errorf("publish %s: %w", event.Type(), err)
	}
	recordDelivered(event.Type())
	return nil
}

func (p *KafkaPublisher) writerForTopic(topic string) MessageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}
	writer := p.newWriter(topic)
	p.writers[topic] = writer
	return writer
}

func (p *KafkaPublisher) kafkaWriter(topic string) MessageWriter {
	return &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
