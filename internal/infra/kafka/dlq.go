package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/vietddude/crmsync/internal/core/domain"
)

// DLQProducer publishes dead letters to the quarantine topic. The
// message value is the original event payload so a replay tool can feed
// it straight back into the main topic; failure context travels in
// headers.
type DLQProducer struct {
	writer *kafkago.Writer
	log    *slog.Logger
	topic  string
}

// NewDLQProducer creates a dead-letter producer.
func NewDLQProducer(brokers []string, topic string, log *slog.Logger) *DLQProducer {
	if log == nil {
		log = slog.Default()
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &DLQProducer{writer: writer, log: log, topic: topic}
}

// Publish writes one dead letter. An error here means the letter is not
// durably quarantined; the caller must not commit the source offset.
func (p *DLQProducer) Publish(ctx context.Context, letter *domain.DeadLetter) error {
	value := letter.Raw
	if len(value) == 0 && letter.Event != nil {
		encoded, err := json.Marshal(letter.Event)
		if err != nil {
			return fmt.Errorf("encode dead letter event: %w", err)
		}
		value = encoded
	}

	var key []byte
	if letter.Event != nil {
		key = []byte(letter.Event.EventID)
	} else {
		key = []byte(letter.ID)
	}

	msg := kafkago.Message{
		Key:     key,
		Value:   value,
		Headers: letterHeaders(letter),
		Time:    letter.FailedAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write dead letter to %s: %w", p.topic, err)
	}

	p.log.Info("Dead letter written",
		"dlq_topic", p.topic,
		"dead_letter_id", letter.ID,
		"reason", letter.Reason,
		"attempts", letter.AttemptCount(),
	)
	return nil
}

// Close closes the DLQ producer.
func (p *DLQProducer) Close() error {
	return p.writer.Close()
}

func letterHeaders(letter *domain.DeadLetter) []kafkago.Header {
	headers := []kafkago.Header{
		{Key: "dead_letter_id", Value: []byte(letter.ID)},
		{Key: "failure_reason", Value: []byte(letter.Reason)},
		{Key: "attempts", Value: []byte(strconv.Itoa(letter.AttemptCount()))},
		{Key: "failed_at", Value: []byte(letter.FailedAt.Format(time.RFC3339))},
	}
	if letter.Event != nil {
		headers = append(headers,
			kafkago.Header{Key: "event_id", Value: []byte(letter.Event.EventID)},
			kafkago.Header{Key: "idempotency_key", Value: []byte(letter.Event.IdempotencyKey)},
		)
	}
	if letter.Origin != nil {
		headers = append(headers,
			kafkago.Header{Key: "origin_topic", Value: []byte(letter.Origin.Topic)},
			kafkago.Header{Key: "origin_partition", Value: []byte(strconv.Itoa(letter.Origin.Partition))},
			kafkago.Header{Key: "origin_offset", Value: []byte(strconv.FormatInt(letter.Origin.Offset, 10))},
		)
	}
	if len(letter.Attempts) > 0 {
		if history, err := json.Marshal(letter.Attempts); err == nil {
			headers = append(headers, kafkago.Header{Key: "attempt_history", Value: history})
		}
	}
	return headers
}
