package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)

// Publisher emits storefront events.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order, txn *models.Transaction) error
	PublishPaymentUpdated(ctx context.Context, data PaymentUpdatedData) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events to Kafka. order.created goes to the
// orders topic and payment.updated to the payments topic.
type KafkaPublisher struct {
	writer        messageWriter
	ordersTopic   string
	paymentsTopic string
	logger        *logging.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *logging.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return newKafkaPublisher(writer, cfg, logger)
}

func newKafkaPublisher(writer messageWriter, cfg config.KafkaConfig, logger *logging.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:        writer,
		ordersTopic:   cfg.OrdersTopic,
		paymentsTopic: cfg.PaymentsTopic,
		logger:        logger,
	}
}

// PublishOrderCreated publishes an order created event. Only a summary of
// the transaction is sent.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order, txn *models.Transaction) error {
	data := OrderCreatedData{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber(),
		PaymentMethod: string(order.PaymentMethod),
		TotalAmount:   order.TotalAmount.String(),
		ItemCount:     len(order.Items),
	}
	if txn != nil {
		data.Transaction = TransactionSummary{
			ID:            txn.ID,
			PaymentMethod: string(txn.PaymentMethod),
			Status:        string(txn.Status),
		}
		if source, ok := txn.Metadata["source"].(string); ok {
			data.Transaction.Source = source
		}
	}

	return p.publish(ctx, p.ordersTopic, EventTypeOrderCreated, order.ID, data)
}

// PublishPaymentUpdated publishes a payment status notification.
func (p *KafkaPublisher) PublishPaymentUpdated(ctx context.Context, data PaymentUpdatedData) error {
	return p.publish(ctx, p.paymentsTopic, EventTypePaymentUpdated, data.OrderID, data)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic string, eventType EventType, orderID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		OrderID:       orderID,
		Data:          data,
		Timestamp:     time.Now().UTC(),
		CorrelationID: middleware.RequestIDFromContext(ctx),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.OrderID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
		"topic":      topic,
	})

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// NopPublisher drops every event. Used when event publication is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(ctx context.Context, order *models.Order, txn *models.Transaction) error {
	return nil
}

func (NopPublisher) PublishPaymentUpdated(ctx context.Context, data PaymentUpdatedData) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
