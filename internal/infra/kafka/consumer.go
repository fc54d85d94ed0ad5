package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/vietddude/crmsync/internal/core/domain"
	"github.com/vietddude/crmsync/internal/syncing/consume"
)

// Consumer adapts a kafka-go reader to the consume.Broker interface.
// Commits are manual only: the reader never auto-commits, so the loop's
// commit-after-terminal-outcome ordering holds.
type Consumer struct {
	reader *kafkago.Reader
	log    *slog.Logger
}

// NewConsumer creates a Kafka consumer for the given topic.
func NewConsumer(brokers []string, topic, groupID string, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,    // manual commit only
	})
	return &Consumer{reader: reader, log: log}
}

// Poll blocks for the next message and returns it as a single-message
// batch. Decode failures are not errors at this level: they come back as
// a Message with Err set so the loop can quarantine the raw payload.
func (c *Consumer) Poll(ctx context.Context) ([]consume.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Fetched message",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)

	origin := &domain.Origin{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}

	ev, decodeErr := decodeEvent(msg.Value)
	if decodeErr != nil {
		return []consume.Message{{Raw: msg.Value, Origin: origin, Handle: msg, Err: decodeErr}}, nil
	}
	return []consume.Message{{Event: ev, Raw: msg.Value, Origin: origin, Handle: msg}}, nil
}

// Commit acknowledges one message's offset.
func (c *Consumer) Commit(ctx context.Context, handle consume.CommitHandle) error {
	msg, ok := handle.(kafkago.Message)
	if !ok {
		return fmt.Errorf("unexpected commit handle type %T", handle)
	}
	return c.reader.CommitMessages(ctx, msg)
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func decodeEvent(value []byte) (*domain.Event, error) {
	var ev domain.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return &ev, nil
}
