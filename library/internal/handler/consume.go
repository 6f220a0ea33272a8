package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AliMakkawi/library-management/pkg/kafka"
	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type recordActivity func(ctx context.Context, event kafka.Event) error

// Consumer feeds the activity topic into the activity log.
type Consumer struct {
	recordActivityHandler recordActivity
	log                   *zap.Logger
	ready                 chan bool
}

func NewConsumer(record recordActivity, log *zap.Logger) *Consumer {
	return &Consumer{
		recordActivityHandler: record,
		log:                   log.Named("consumer"),
		ready:                 make(chan bool),
	}
}

// Ready is closed once the first session is set up.
func (consumer *Consumer) Ready() <-chan bool {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	select {
	case <-consumer.ready:
	default:
		close(consumer.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			if err := consumer.handle(session.Context(), message); err != nil {
				consumer.log.Error("consumer.recordActivityHandler", zap.Error(err))
				continue
			}
			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// handle returns an error only for failures worth redelivering; malformed payloads are dropped.
func (consumer *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event kafka.Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		consumer.log.Error("malformed event", zap.Error(err), zap.ByteString("value", message.Value))
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return consumer.recordActivityHandler(ctx, event)
}
