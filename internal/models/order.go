package models

import (
	"strings"
	"time"
)

// OrderStatus represents the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod tags how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodPix || m == PaymentMethodCreditCard
}

// OrderItem is a line item embedded in an order.
type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns price x quantity.
func (i OrderItem) Subtotal() Money {
	return i.Price.MulInt(i.Quantity)
}

// Order is a checkout submission as persisted.
type Order struct {
	ID                 string        `json:"id"`
	CustomerName       string        `json:"customerName"`
	CustomerPhone      string        `json:"customerPhone"`
	CustomerEmail      *string       `json:"customerEmail"`
	DeliveryAddress    string        `json:"deliveryAddress"`
	DeliveryCep        string        `json:"deliveryCep"`
	DeliveryCity       string        `json:"deliveryCity"`
	DeliveryState      string        `json:"deliveryState"`
	DeliveryComplement *string       `json:"deliveryComplement"`
	Items              []OrderItem   `json:"items"`
	TotalAmount        Money         `json:"totalAmount"`
	PaymentMethod      PaymentMethod `json:"paymentMethod"`
	Status             OrderStatus   `json:"status"`
	IdempotencyKey     string        `json:"-"`
	CreatedAt          time.Time     `json:"createdAt"`
}

// OrderNumber is the short customer-facing reference: the first eight
// characters of the id, upper-cased.
func (o *Order) OrderNumber() string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// CreateOrderRequest carries the fields of an order to insert.
type CreateOrderRequest struct {
	CustomerName       string
	CustomerPhone      string
	CustomerEmail      *string
	DeliveryAddress    string
	DeliveryCep        string
	DeliveryCity       string
	DeliveryState      string
	DeliveryComplement *string
	Items              []OrderItem
	TotalAmount        Money
	PaymentMethod      PaymentMethod
	Status             OrderStatus
	IdempotencyKey     string
}

// OrderDetails is the order view returned by the status lookup: the order
// plus its short number and, when a transaction exists, its PIX fields.
type OrderDetails struct {
	Order
	OrderNumber     string  `json:"orderNumber"`
	PixQrCodeBase64 *string `json:"pixQrCodeBase64,omitempty"`
	PixCopyPaste    *string `json:"pixCopyPaste,omitempty"`
}
