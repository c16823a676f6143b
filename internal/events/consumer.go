package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// PaymentUpdateHandler applies a gateway payment notification.
type PaymentUpdateHandler interface {
	ApplyPaymentUpdate(ctx context.Context, update *models.PaymentUpdate) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer consumes payment.updated events from the payments topic.
type KafkaConsumer struct {
	reader   messageReader
	handler  PaymentUpdateHandler
	logger   *logging.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKafkaConsumer creates a new Kafka-based event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, handler PaymentUpdateHandler, logger *logging.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return newKafkaConsumer(reader, handler, logger)
}

func newKafkaConsumer(reader messageReader, handler PaymentUpdateHandler, logger *logging.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start consumes until ctx is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case <-c.stopCh:
				c.logger.Info("Kafka consumer stopped")
				return nil
			default:
			}
			c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

// Stop stops the consumer. It is safe to call more than once.
func (c *KafkaConsumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.reader.Close()
	})
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	logger := c.logger.With(logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})
	logger.Debug("Received message")

	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		return
	}

	if event.Type != EventTypePaymentUpdated {
		logger.Debug("Ignoring event type", logging.Fields{"type": event.Type})
		return
	}

	var data PaymentUpdatedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		logger.Error("Failed to unmarshal payment update", logging.Fields{
			"event_id": event.ID,
			"error":    err.Error(),
		})
		return
	}

	status, ok := models.TransactionStatusFromGateway(data.Status)
	if !ok {
		logger.Warn("Ignoring unknown payment status", logging.Fields{
			"payment_id": data.PaymentID,
			"status":     data.Status,
		})
		return
	}

	update := &models.PaymentUpdate{
		GatewayID: data.PaymentID,
		OrderID:   data.OrderID,
		Status:    status,
	}
	if err := c.handler.ApplyPaymentUpdate(ctx, update); err != nil {
		logger.Error("Failed to apply payment update", logging.Fields{
			"payment_id": data.PaymentID,
			"order_id":   data.OrderID,
			"error":      err.Error(),
		})
		return
	}

	logger.Info("Payment update applied", logging.Fields{
		"payment_id": data.PaymentID,
		"status":     status,
	})
}
