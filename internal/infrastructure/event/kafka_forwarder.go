package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of *kafka.Writer the forwarder uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarderConfig configures the Kafka sink
type KafkaForwarderConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaForwarder writes every domain event it receives to a Kafka topic as
// a JSON Envelope keyed by aggregate id, so events of one order or payment
// land on the same partition in order.
type KafkaForwarder struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewKafkaForwarder creates a forwarder backed by a kafka.Writer
func NewKafkaForwarder(cfg KafkaForwarderConfig, l *zap.Logger) (*KafkaForwarder, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka forwarder: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka forwarder: topic is required")
	}
	if l == nil {
		l = zap.NewNop()
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLogger:  zap.NewStdLog(l.With(zap.String("kafka_component", "producer"))),
	}
	l.Info("Kafka event forwarder initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))
	return newKafkaForwarder(w, cfg.Topic, cfg.WriteTimeout, l), nil
}

func newKafkaForwarder(w messageWriter, topic string, timeout time.Duration, l *zap.Logger) *KafkaForwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &KafkaForwarder{writer: w, topic: topic, writeTimeout: timeout, logger: l}
}

// EventTypes implements shared.EventHandler; the forwarder takes every event
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Handle implements shared.EventHandler
func (f *KafkaForwarder) Handle(ctx context.Context, evt shared.DomainEvent) error {
	env, err := NewEnvelope(evt)
	if err != nil {
		return err
	}
	value, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	// the request may already be finishing; the write gets its own deadline
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(evt.AggregateID().String()),
		Value: value,
		Time:  evt.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType())},
			{Key: "event_id", Value: []byte(evt.EventID().String())},
		},
	}
	if err := f.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", evt.EventType(), f.topic, err)
	}
	f.logger.Debug("Event forwarded to Kafka",
		zap.String("topic", f.topic),
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()))
	return nil
}

// Close flushes and closes the writer
func (f *KafkaForwarder) Close() error {
	if err := f.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
