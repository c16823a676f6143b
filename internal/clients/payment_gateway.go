package clients

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// PaymentGateway creates remote payment intents. A nil PaymentGateway
// means no gateway is configured.
type PaymentGateway interface {
	CreatePixPayment(ctx context.Context, req *PixPaymentRequest) (*PixPayment, error)
}

// Payer identifies the customer to the gateway.
type Payer struct {
	Email     string
	FirstName string
	LastName  string
}

// PixPaymentRequest describes a PIX payment intent for one order.
type PixPaymentRequest struct {
	OrderID     string
	Amount      models.Money
	Description string
	Payer       Payer
}

// PixPayment is the gateway's view of a created PIX intent.
type PixPayment struct {
	ID           string
	Status       string
	StatusDetail string
	QRCode       string
	QRCodeBase64 string
	TicketURL    string
}

// NewPaymentGateway returns the configured gateway, or a nil interface
// when no access token is set.
func NewPaymentGateway(cfg config.PaymentGatewayConfig, logger *logging.Logger) PaymentGateway {
	client := NewMercadoPagoClient(cfg, logger)
	if client == nil {
		return nil
	}
	return client
}
