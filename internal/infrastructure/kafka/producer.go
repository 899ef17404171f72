package kafka

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

type EventProducer struct {
	*producer.Producer
	topic string
}

func NewEventProducer(producer *producer.Producer, topic string) *EventProducer {
	return &EventProducer{
		producer,
		topic,
	}
}

// SendEvents re-publishes dead letters onto the notification topic.
func (ep *EventProducer) SendEvents(ctx context.Context, letters []*entity.DeadLetter) error {
	msgs := RedriveMessages(ep.topic, letters)
	if len(msgs) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgs...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}

// RedriveMessages keys every message by object key, like the bucket does.
func RedriveMessages(topic string, letters []*entity.DeadLetter) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(letters))

	for _, dl := range letters {
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   []byte(dl.Bucket + "/" + dl.ObjectKey),
			Value: dl.Payload,
			Headers: []kafka.Header{
				{Key: "dead_letter_id", Value: []byte(dl.ID.String())},
				{Key: RedriveAttemptHeader, Value: []byte(strconv.Itoa(dl.RedriveAttempt + 1))},
			},
		})
	}

	return msgs
}
