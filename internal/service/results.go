package service

import (
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const creditCardPendingMessage = "Dados recebidos. Em produção, use tokenização do Mercado Pago no frontend."

// CheckoutResult is what the customer needs to complete payment. It is
// either a *PixResult or a *CreditCardResult.
type CheckoutResult interface {
	CheckoutOrderID() string
	CheckoutPaymentMethod() models.PaymentMethod
}

// PixResult carries the PIX instrument for an order. Degraded is only set
// when the degraded flag is exposed to clients.
type PixResult struct {
	OrderID         string               `json:"orderId"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	PixQrCode       string               `json:"pixQrCode"`
	PixQrCodeBase64 string               `json:"pixQrCodeBase64"`
	PixCopyPaste    string               `json:"pixCopyPaste"`
	Degraded        *bool                `json:"degraded,omitempty"`
}

func (r *PixResult) CheckoutOrderID() string                     { return r.OrderID }
func (r *PixResult) CheckoutPaymentMethod() models.PaymentMethod { return models.PaymentMethodPix }

// CreditCardResult acknowledges a card checkout awaiting tokenization.
type CreditCardResult struct {
	OrderID       string                   `json:"orderId"`
	PaymentMethod models.PaymentMethod     `json:"paymentMethod"`
	Status        models.TransactionStatus `json:"status"`
	Message       string                   `json:"message"`
}

func (r *CreditCardResult) CheckoutOrderID() string { return r.OrderID }
func (r *CreditCardResult) CheckoutPaymentMethod() models.PaymentMethod {
	return models.PaymentMethodCreditCard
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
