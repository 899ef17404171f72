package kafka

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andreyxaxa/memories-server/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

// RedriveAttemptHeader counts how many times a dead-lettered event was re-published.
const RedriveAttemptHeader = "redrive_attempt"

type EventConsumer struct {
	*consumer.Consumer
}

func NewEventConsumer(consumer *consumer.Consumer) *EventConsumer {
	return &EventConsumer{consumer}
}

func (ec *EventConsumer) ReadEvent(ctx context.Context) (kafka.Message, error) {
	msg, err := ec.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("EventConsumer - ReadEvent - ec.Reader.FetchMessage: %w", err)
	}

	return msg, nil
}

func (ec *EventConsumer) CommitEvent(ctx context.Context, event kafka.Message) error {
	err := ec.Reader.CommitMessages(ctx, event)
	if err != nil {
		return fmt.Errorf("EventConsumer - CommitEvent - ec.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (ec *EventConsumer) Close() error {
	err := ec.Consumer.Close()
	if err != nil {
		return fmt.Errorf("EventConsumer - Close: %w", err)
	}

	return nil
}

// RedriveAttempt reads the redrive header. Missing or malformed -> 0.
func RedriveAttempt(msg kafka.Message) int {
	for _, h := range msg.Headers {
		if h.Key != RedriveAttemptHeader {
			continue
		}

		n, err := strconv.Atoi(string(h.Value))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}

	return 0
}
