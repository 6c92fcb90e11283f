package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

const contentType = "application/json"

// StatementWriter publishes statements to a Kafka topic, keyed by statement
// id. It implements domain.StatementSink.
type StatementWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewStatementWriter creates a producer for topic.
func NewStatementWriter(brokers []string, topic string, logger *slog.Logger) *StatementWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &StatementWriter{writer: w, logger: logger.With("component", "kafka_statement_writer")}
}

// WriteStatements publishes the batch in a single WriteMessages call.
func (w *StatementWriter) WriteStatements(ctx context.Context, statements []domain.Statement) error {
	if len(statements) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(statements))
	for i, s := range statements {
		msg, err := mapStatementToMessage(s)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d statements: %w", len(msgs), err)
	}
	w.logger.Debug("Published statements", "count", len(msgs))
	return nil
}

func (w *StatementWriter) Close() error {
	return w.writer.Close()
}

func mapStatementToMessage(s domain.Statement) (kafkago.Message, error) {
	if s.ID == "" {
		return kafkago.Message{}, fmt.Errorf("statement for %s has no id", s.Object.ID)
	}
	value, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("failed to marshal statement %s: %w", s.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(s.ID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "content-type", Value: []byte(contentType)},
			{Key: "verb", Value: []byte(s.Verb.ID)},
		},
	}, nil
}
