// Package kafka publishes scan notifications to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

// Config holds the producer settings for the notifier.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
}

var _ scanning.Notifier = (*Notifier)(nil)

// Notifier sends each notification as a JSON message keyed by job id so all
// messages for one scan land on the same partition.
type Notifier struct {
	producer sarama.SyncProducer
	topic    string

	logger *logger.Logger
	tracer trace.Tracer
}

// NewNotifier wraps an existing producer.
func NewNotifier(producer sarama.SyncProducer, topic string, log *logger.Logger, tracer trace.Tracer) *Notifier {
	return &Notifier{
		producer: producer,
		topic:    topic,
		logger:   log.With("component", "kafka_notifier", "topic", topic),
		tracer:   tracer,
	}
}

// NewProducerConfig returns the sarama settings used by the notifier.
func NewProducerConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = clientID

	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Return.Successes = true
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.Retry.Max = 3

	config.Version = sarama.V3_6_0_0
	return config
}

// ConnectWithRetry creates a sync producer, retrying with exponential backoff
// for up to two minutes while the cluster becomes reachable.
func ConnectWithRetry(cfg Config, log *logger.Logger, tracer trace.Tracer) (*Notifier, error) {
	var producer sarama.SyncProducer

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 2 * time.Minute
	expBackoff.InitialInterval = 2 * time.Second

	operation := func() error {
		var err error
		producer, err = sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig(cfg.ClientID))
		if err != nil {
			log.Warn(context.Background(), "kafka producer not ready, retrying", "error", err)
			return fmt.Errorf("creating producer: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(operation, expBackoff); err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka after retries: %w", err)
	}

	return NewNotifier(producer, cfg.Topic, log, tracer), nil
}

// Notify publishes n synchronously.
func (k *Notifier) Notify(ctx context.Context, n scanning.Notification) error {
	ctx, span := k.tracer.Start(ctx, "kafka.produce",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(k.topic),
			semconv.MessagingOperationPublish,
			attribute.String("job_id", n.JobID),
		),
	)
	defer span.End()

	payload, err := json.Marshal(n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode notification")
		return fmt.Errorf("encode notification: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(n.JobID),
		Value: sarama.ByteEncoder(payload),
	}
	carrier := &headerCarrier{headers: msg.Headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	msg.Headers = carrier.headers

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send notification")
		return fmt.Errorf("failed to send message to kafka topic %s: %w", k.topic, err)
	}

	k.logger.Debug(ctx, "Published notification",
		"partition", partition,
		"offset", offset,
		"job_id", n.JobID,
	)
	return nil
}

// Close releases the producer.
func (k *Notifier) Close() error { return k.producer.Close() }
