package service

import (
	"context"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pix"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

const (
	sourceGateway  = "gateway"
	sourceFallback = "fallback"

	reasonNotConfigured = "gateway_not_configured"
	reasonGatewayError  = "gateway_error"

	creditCardNote = "Credit card payment - requires Mercado Pago frontend tokenization for production"
)

// PaymentService creates the payment transaction for a persisted order.
// A nil gateway means no gateway is configured and every PIX checkout
// uses a locally synthesized payload.
type PaymentService struct {
	gateway          clients.PaymentGateway
	transactions     repository.TransactionStore
	renderer         pix.Renderer
	merchant         pix.Merchant
	placeholderEmail string
	exposeDegraded   bool
	metrics          *metrics.Metrics
	logger           *logging.Logger
	now              func() time.Time
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	gateway clients.PaymentGateway,
	transactions repository.TransactionStore,
	renderer pix.Renderer,
	cfg *config.Config,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		gateway:          gateway,
		transactions:     transactions,
		renderer:         renderer,
		merchant:         pix.Merchant{Name: cfg.Pix.MerchantName, City: cfg.Pix.MerchantCity},
		placeholderEmail: cfg.Pix.PlaceholderEmail,
		exposeDegraded:   cfg.Features.ExposeDegradedPix,
		metrics:          m,
		logger:           logging.NewLogger("payment-service"),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Pay dispatches on the order's payment method and persists the
// resulting transaction.
func (s *PaymentService) Pay(ctx context.Context, order *models.Order, card *models.CardData) (*models.Transaction, error) {
	switch order.PaymentMethod {
	case models.PaymentMethodPix:
		return s.CreatePixTransaction(ctx, order)
	case models.PaymentMethodCreditCard:
		return s.CreateCardTransaction(ctx, order, card)
	}
	return nil, invalidPaymentMethod()
}

// CreatePixTransaction obtains a PIX code from the gateway, or
// synthesizes one when the gateway is absent or fails, and persists a
// pending transaction carrying it. The transaction is only written once
// every field is known.
func (s *PaymentService) CreatePixTransaction(ctx context.Context, order *models.Order) (*models.Transaction, error) {
	var (
		code      string
		qrBase64  string
		gatewayID *string
		metadata  models.Metadata
	)

	payment, reason, gatewayErr := s.requestPixPayment(ctx, order)
	if payment != nil {
		code = payment.QRCode
		id := payment.ID
		gatewayID = &id
		metadata = models.Metadata{
			"source":        sourceGateway,
			"id":            payment.ID,
			"status":        payment.Status,
			"status_detail": payment.StatusDetail,
		}
		if payment.TicketURL != "" {
			metadata["ticket_url"] = payment.TicketURL
		}

		rendered, err := s.renderer.Render(code)
		if err != nil {
			s.logger.Warn("QR code rendering failed, using gateway image", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
			rendered = pix.StripDataURI(payment.QRCodeBase64)
		}
		qrBase64 = rendered
	} else {
		code = pix.BuildFallbackPayload(s.merchant, order.ID, order.TotalAmount)
		metadata = models.Metadata{
			"source": sourceFallback,
			"reason": reason,
		}
		if gatewayErr != nil {
			metadata["error"] = gatewayErr.Error()
		}

		rendered, err := s.renderer.Render(code)
		if err != nil {
			s.logger.Error("QR code rendering failed", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
			rendered = ""
		}
		qrBase64 = rendered

		s.metrics.ObservePixFallback(reason)
		s.logger.Warn("Using fallback PIX payload", logging.Fields{
			"order_id": order.ID,
			"reason":   reason,
		})
	}

	return s.transactions.CreateTransaction(ctx, &models.CreateTransactionRequest{
		OrderID:         order.ID,
		PaymentMethod:   models.PaymentMethodPix,
		Amount:          order.TotalAmount,
		Status:          models.TransactionStatusPending,
		GatewayID:       gatewayID,
		PixQrCode:       &code,
		PixQrCodeBase64: &qrBase64,
		PixCopyPaste:    &code,
		Metadata:        metadata,
	})
}

// requestPixPayment returns the gateway payment, or the fallback reason
// and the gateway error when there is none.
func (s *PaymentService) requestPixPayment(ctx context.Context, order *models.Order) (*clients.PixPayment, string, error) {
	if s.gateway == nil {
		return nil, reasonNotConfigured, nil
	}

	email := s.placeholderEmail
	if order.CustomerEmail != nil && strings.TrimSpace(*order.CustomerEmail) != "" {
		email = strings.TrimSpace(*order.CustomerEmail)
	}
	firstName, lastName := SplitName(order.CustomerName)

	start := time.Now()
	payment, err := s.gateway.CreatePixPayment(ctx, &clients.PixPaymentRequest{
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
		Description: "Pedido #" + order.ID,
		Payer: clients.Payer{
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
		},
	})
	if err != nil {
		s.metrics.ObserveGatewayCall("error", time.Since(start))
		s.logger.Error("Payment gateway failed, falling back", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return nil, reasonGatewayError, err
	}

	s.metrics.ObserveGatewayCall("success", time.Since(start))
	return payment, "", nil
}

// CreateCardTransaction persists a pending card transaction. Only the last
// four digits of the card number are kept, inside metadata; the gateway is
// not called because tokenization happens client side.
func (s *PaymentService) CreateCardTransaction(ctx context.Context, order *models.Order, card *models.CardData) (*models.Transaction, error) {
	return s.transactions.CreateTransaction(ctx, &models.CreateTransactionRequest{
		OrderID:       order.ID,
		PaymentMethod: models.PaymentMethodCreditCard,
		Amount:        order.TotalAmount,
		Status:        models.TransactionStatusPending,
		Metadata: models.Metadata{
			"note":      creditCardNote,
			"timestamp": s.now().Format(time.RFC3339),
			"cardLast4": card.Last4(),
		},
	})
}

// Result builds the customer-facing checkout result from a persisted
// order and its transaction.
func (s *PaymentService) Result(order *models.Order, txn *models.Transaction) CheckoutResult {
	if order.PaymentMethod == models.PaymentMethodCreditCard {
		return &CreditCardResult{
			OrderID:       order.ID,
			PaymentMethod: models.PaymentMethodCreditCard,
			Status:        txn.Status,
			Message:       creditCardPendingMessage,
		}
	}

	result := &PixResult{
		OrderID:         order.ID,
		PaymentMethod:   models.PaymentMethodPix,
		PixQrCode:       deref(txn.PixQrCode),
		PixQrCodeBase64: deref(txn.PixQrCodeBase64),
		PixCopyPaste:    deref(txn.PixCopyPaste),
	}
	if s.exposeDegraded {
		degraded := IsDegraded(txn)
		result.Degraded = &degraded
	}
	return result
}

// IsDegraded reports whether the transaction carries a locally
// synthesized PIX payload.
func IsDegraded(txn *models.Transaction) bool {
	source, _ := txn.Metadata["source"].(string)
	return source == sourceFallback
}

// SplitName splits a customer name into the first token and the rest.
// Missing parts are empty strings.
func SplitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
