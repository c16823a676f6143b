package events

import (
	"encoding/json"
	"time"
)

// EventType names an event on the storefront topics.
type EventType string

const (
	EventTypeOrderCreated   EventType = "order.created"
	EventTypePaymentUpdated EventType = "payment.updated"
)

// Event is the envelope written to Kafka.
type Event struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	OrderID       string          `json:"order_id"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// TransactionSummary is the card-free view of a transaction carried on
// order.created.
type TransactionSummary struct {
	ID            string `json:"id"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
	Source        string `json:"source,omitempty"`
}

// OrderCreatedData is the payload of order.created.
type OrderCreatedData struct {
	OrderID       string             `json:"order_id"`
	OrderNumber   string             `json:"order_number"`
	PaymentMethod string             `json:"payment_method"`
	TotalAmount   string             `json:"total_amount"`
	ItemCount     int                `json:"item_count"`
	Transaction   TransactionSummary `json:"transaction"`
}

// PaymentUpdatedData is the payload of payment.updated. Status is the
// gateway's own status string.
type PaymentUpdatedData struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id,omitempty"`
	Status    string `json:"status"`
}
