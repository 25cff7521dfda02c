package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/thuanng/bookingpay/internal/domain"
	"github.com/thuanng/bookingpay/pkg/logger"
)

const (
	TopicPaymentCreated  = "payment.created"
	TopicPaymentPaid     = "payment.paid"
	TopicPaymentFailed   = "payment.failed"
	TopicPaymentConflict = "payment.conflict"
)

// PaymentEvent представляет событие платежа для Kafka
type PaymentEvent struct {
	EventID   string               `json:"event_id"`
	Reference string               `json:"reference"`
	BookingID string               `json:"booking_id,omitempty"`
	Amount    int64                `json:"amount,omitempty"`
	Status    domain.PaymentStatus `json:"status,omitempty"`
	Channel   string               `json:"channel,omitempty"`
	Reason    string               `json:"reason,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// PaymentProducer интерфейс для отправки событий платежей.
// События конфликтов и расхождений сумм — канал для оператора:
// они публикуются, но никогда не меняют сохраненное состояние.
type PaymentProducer interface {
	PublishPaymentCreated(ctx context.Context, payment domain.Payment) error
	PublishPaymentPaid(ctx context.Context, payment domain.Payment, channel string) error
	PublishPaymentFailed(ctx context.Context, payment domain.Payment, channel string) error
	PublishReconciliationConflict(ctx context.Context, reference, channel, reason string) error
	Close() error
}

type kafkaPaymentProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaPaymentProducer создает новый продюсер событий платежей
func NewKafkaPaymentProducer(producer sarama.SyncProducer, log *logger.Logger) PaymentProducer {
	return &kafkaPaymentProducer{
		producer: producer,
		log:      log,
	}
}

// PublishPaymentCreated публикует событие о созданной платежной попытке
func (p *kafkaPaymentProducer) PublishPaymentCreated(ctx context.Context, payment domain.Payment) error {
	return p.publishEvent(TopicPaymentCreated, paymentEvent(payment, "", ""))
}

// PublishPaymentPaid публикует событие об успешной оплате
func (p *kafkaPaymentProducer) PublishPaymentPaid(ctx context.Context, payment domain.Payment, channel string) error {
	return p.publishEvent(TopicPaymentPaid, paymentEvent(payment, channel, ""))
}

// PublishPaymentFailed публикует событие о неудачной оплате
func (p *kafkaPaymentProducer) PublishPaymentFailed(ctx context.Context, payment domain.Payment, channel string) error {
	return p.publishEvent(TopicPaymentFailed, paymentEvent(payment, channel, ""))
}

// PublishReconciliationConflict публикует событие о конфликте сверки
// для операторского разбора
func (p *kafkaPaymentProducer) PublishReconciliationConflict(ctx context.Context, reference, channel, reason string) error {
	event := PaymentEvent{
		EventID:   uuid.NewString(),
		Reference: reference,
		Channel:   channel,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	return p.publishEvent(TopicPaymentConflict, event)
}

// publishEvent публикует событие платежа в Kafka
func (p *kafkaPaymentProducer) publishEvent(topic string, event PaymentEvent) error {
	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.Reference),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}

	p.log.Info("Published payment event to topic %s: partition=%d offset=%d",
		topic, partition, offset)

	return nil
}

// Close закрывает продюсер
func (p *kafkaPaymentProducer) Close() error {
	return p.producer.Close()
}

func paymentEvent(payment domain.Payment, channel, reason string) PaymentEvent {
	return PaymentEvent{
		EventID:   uuid.NewString(),
		Reference: payment.Reference,
		BookingID: payment.BookingID,
		Amount:    payment.Amount,
		Status:    payment.Status,
		Channel:   channel,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// NoOpProducer заглушка на случай недоступности Kafka
type NoOpProducer struct{}

func (NoOpProducer) PublishPaymentCreated(ctx context.Context, payment domain.Payment) error {
	return nil
}

func (NoOpProducer) PublishPaymentPaid(ctx context.Context, payment domain.Payment, channel string) error {
	return nil
}

func (NoOpProducer) PublishPaymentFailed(ctx context.Context, payment domain.Payment, channel string) error {
	return nil
}

func (NoOpProducer) PublishReconciliationConflict(ctx context.Context, reference, channel, reason string) error {
	return nil
}

func (NoOpProducer) Close() error { return nil }
