package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
)

// EventPublisher отдаёт события эскалаций во внешнюю шину для аналитики.
// Ошибки публикации не влияют на работу воронок.
type EventPublisher interface {
	PublishEscalation(ctx context.Context, msg *models.PendingMessage, tier int) error
	PublishResolution(ctx context.Context, chatID int64, removed int) error
	Close() error
}

type escalationEvent struct {
	Event       string    `json:"event"`
	ChatID      int64     `json:"chat_id"`
	UserID      int64     `json:"user_id,omitempty"`
	MessageID   int64     `json:"message_id,omitempty"`
	Tier        int       `json:"tier,omitempty"`
	Removed     int       `json:"removed,omitempty"`
	FirstSeenAt time.Time `json:"first_seen_at,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type KafkaEventPublisher struct {
	producer *kafka.Writer
	logger   *slog.Logger
	topic    string
}

func NewKafkaEventPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaEventPublisher {
	producer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return &KafkaEventPublisher{
		producer: producer,
		logger:   logger,
		topic:    topic,
	}
}

func (p *KafkaEventPublisher) PublishEscalation(ctx context.Context, msg *models.PendingMessage, tier int) error {
	event := escalationEvent{
		Event:       "escalation",
		ChatID:      msg.ChatID,
		UserID:      msg.UserID,
		MessageID:   msg.MessageID,
		Tier:        tier,
		FirstSeenAt: msg.FirstSeenAt,
		OccurredAt:  time.Now(),
	}

	return p.publish(ctx, fmt.Sprintf("%d", msg.ChatID), event)
}

func (p *KafkaEventPublisher) PublishResolution(ctx context.Context, chatID int64, removed int) error {
	event := escalationEvent{
		Event:      "resolution",
		ChatID:     chatID,
		Removed:    removed,
		OccurredAt: time.Now(),
	}

	return p.publish(ctx, fmt.Sprintf("%d", chatID), event)
}

func (p *KafkaEventPublisher) publish(ctx context.Context, key string, event escalationEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации события: %w", err)
	}

	err = p.producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.logger.Error("Ошибка при отправке события в Kafka",
			"event", event.Event,
			"error", err,
		)

		return fmt.Errorf("ошибка при отправке события в Kafka: %w", err)
	}

	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopEventPublisher используется при выключенной шине событий.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

func (p *NoopEventPublisher) PublishEscalation(_ context.Context, _ *models.PendingMessage, _ int) error {
	return nil
}

func (p *NoopEventPublisher) PublishResolution(_ context.Context, _ int64, _ int) error {
	return nil
}

func (p *NoopEventPublisher) Close() error {
	return nil
}
