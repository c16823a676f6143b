package models

import "time"

// TransactionStatus represents the state of a payment attempt.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusApproved  TransactionStatus = "approved"
	TransactionStatusRejected  TransactionStatus = "rejected"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusApproved, TransactionStatusRejected, TransactionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a payment in status s may move to next.
// Rejected and cancelled are final; an approved payment may only be
// cancelled, which is how refunds and chargebacks arrive.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return next.Valid()
	case TransactionStatusApproved:
		return next == TransactionStatusCancelled
	}
	return false
}

// Metadata is a free-form diagnostic payload stored with a transaction.
// It never carries raw card data.
type Metadata map[string]interface{}

// Transaction records one payment attempt for an order.
type Transaction struct {
	ID              string            `json:"id"`
	OrderID         string            `json:"orderId"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod"`
	Amount          Money             `json:"amount"`
	Status          TransactionStatus `json:"status"`
	GatewayID       *string           `json:"mercadoPagoId"`
	PixQrCode       *string           `json:"pixQrCode"`
	PixQrCodeBase64 *string           `json:"pixQrCodeBase64"`
	PixCopyPaste    *string           `json:"pixCopyPaste"`
	Metadata        Metadata          `json:"metadata"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// CreateTransactionRequest carries the fully computed fields of a
// transaction to insert.
type CreateTransactionRequest struct {
	OrderID         string
	PaymentMethod   PaymentMethod
	Amount          Money
	Status          TransactionStatus
	GatewayID       *string
	PixQrCode       *string
	PixQrCodeBase64 *string
	PixCopyPaste    *string
	Metadata        Metadata
}

// OrderStatusFor maps a settled transaction status onto the order status
// it implies. ok is false when the order should be left untouched.
func OrderStatusFor(status TransactionStatus) (OrderStatus, bool) {
	switch status {
	case TransactionStatusApproved:
		return OrderStatusPaid, true
	case TransactionStatusRejected, TransactionStatusCancelled:
		return OrderStatusCancelled, true
	}
	return "", false
}

// PaymentUpdate is a gateway notification about a payment's status.
type PaymentUpdate struct {
	GatewayID string            `json:"gatewayId"`
	OrderID   string            `json:"orderId,omitempty"`
	Status    TransactionStatus `json:"status"`
}

// TransactionStatusFromGateway maps a Mercado Pago payment status onto a
// transaction status. ok is false for statuses this service does not know.
func TransactionStatusFromGateway(status string) (TransactionStatus, bool) {
	switch status {
	case "approved":
		return TransactionStatusApproved, true
	case "rejected":
		return TransactionStatusRejected, true
	case "cancelled", "refunded", "charged_back":
		return TransactionStatusCancelled, true
	case "pending", "in_process", "in_mediation", "authorized":
		return TransactionStatusPending, true
	}
	return "", false
}
