package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	ActivityTopic         = "library.activity"
	ActivityConsumerGroup = "library-activity"
)

type Config struct {
	Enable bool     `yaml:"enable" envconfig:"KAFKA_ENABLE"`
	Addrs  []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

type EventType string

const (
	EventBookCheckedOut    EventType = "BOOK_CHECKED_OUT"
	EventBookReturned      EventType = "BOOK_RETURNED"
	EventBookCreated       EventType = "BOOK_CREATED"
	EventBookDeleted       EventType = "BOOK_DELETED"
	EventInvitationCreated EventType = "INVITATION_CREATED"
	EventUserRegistered    EventType = "USER_REGISTERED"
	EventUserRoleChanged   EventType = "USER_ROLE_CHANGED"
)

// Event is the activity message published after a committed workflow.
type Event struct {
	Timestamp   time.Time         `json:"timestamp"`
	EventType   EventType         `json:"eventType"`
	UserID      string            `json:"userId"`
	BookID      string            `json:"bookId,omitempty"`
	BorrowingID string            `json:"borrowingId,omitempty"`
	Payload     map[string]string `json:"payload,omitempty"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the consumer group loop until ctx is cancelled.
func Consume(ctx context.Context, group sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, log *zap.Logger, topics ...string) {
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			log.Error("group.Consume", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewPublisher(producer sarama.SyncProducer, topic string) Publisher {
	return &publisher{producer: producer, topic: topic}
}

func (p *publisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err = p.producer.SendMessage(msg); err != nil {
		return errors.Wrap(err, "producer.SendMessage")
	}
	return nil
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
