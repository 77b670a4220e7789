package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

func TestNotifier_Notify(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig("test"))
	defer producer.Close()

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "scan-notifications" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "job-1" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})

	n := NewNotifier(producer, "scan-notifications", logger.Noop(), noop.NewTracerProvider().Tracer("test"))
	err := n.Notify(context.Background(), scanning.Notification{
		Title:    "Security scan completed",
		Body:     "2 vulnerabilities found",
		Severity: "high",
		JobID:    "job-1",
	})
	require.NoError(t, err)
}

func TestNotifier_PayloadShape(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig("test"))
	defer producer.Close()

	var got scanning.Notification
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		return json.Unmarshal(val, &got)
	})

	n := NewNotifier(producer, "t", logger.Noop(), noop.NewTracerProvider().Tracer("test"))
	want := scanning.Notification{Title: "Security scan failed", Body: "scan cancelled", Severity: "medium", JobID: "job-2"}
	require.NoError(t, n.Notify(context.Background(), want))
	assert.Equal(t, want, got)
}

func TestNotifier_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig("test"))
	defer producer.Close()

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	n := NewNotifier(producer, "t", logger.Noop(), noop.NewTracerProvider().Tracer("test"))
	err := n.Notify(context.Background(), scanning.Notification{JobID: "job-3"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}
