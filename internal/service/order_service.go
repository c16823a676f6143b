package service

import (
	"context"
	stderrors "errors"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// OrderService orchestrates checkout: it persists the order, creates the
// payment transaction and answers order status lookups.
type OrderService struct {
	store     repository.Store
	payments  *PaymentService
	cache     repository.OrderCache
	publisher events.Publisher
	features  config.FeatureFlags
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewOrderService creates a new order service. cache and publisher may be
// nil.
func NewOrderService(
	store repository.Store,
	payments *PaymentService,
	cache repository.OrderCache,
	publisher events.Publisher,
	cfg *config.Config,
	m *metrics.Metrics,
) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &OrderService{
		store:     store,
		payments:  payments,
		cache:     cache,
		publisher: publisher,
		features:  cfg.Features,
		metrics:   m,
		logger:    logging.NewLogger("order-service"),
	}
}

// SubmitCheckout validates the submission, persists a pending order and
// its payment transaction, and returns how the customer completes
// payment. A submission carrying a known idempotency key replays the
// original result without creating records.
func (s *OrderService) SubmitCheckout(ctx context.Context, req *models.CheckoutRequest) (CheckoutResult, error) {
	if err := ValidateCheckoutRequest(req); err != nil {
		method := ""
		if req != nil {
			method = string(req.PaymentMethod)
		}
		s.metrics.ObserveCheckout(method, "invalid")
		s.logger.Warn("Rejected checkout", logging.Fields{"error": err.Error()})
		return nil, err
	}

	s.logger.Info("Submitting checkout", logging.Fields{
		"payment_method": req.PaymentMethod,
		"item_count":     len(req.Items),
		"total":          req.TotalAmount.String(),
	})

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			return s.replay(ctx, existing, req.CardData)
		}
		if !errors.IsNotFound(err) {
			return nil, s.fail(req.PaymentMethod, "look up idempotent order", err)
		}
	}

	order, err := s.store.CreateOrder(ctx, req.ToCreateOrderRequest())
	if stderrors.Is(err, errors.ErrConflict) {
		existing, lookupErr := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if lookupErr != nil {
			return nil, s.fail(req.PaymentMethod, "look up idempotent order", lookupErr)
		}
		return s.replay(ctx, existing, req.CardData)
	}
	if err != nil {
		return nil, s.fail(req.PaymentMethod, "create order", err)
	}

	txn, err := s.pay(ctx, order, req.CardData)
	if err != nil {
		return nil, s.fail(req.PaymentMethod, "create transaction", err)
	}

	outcome := "success"
	if IsDegraded(txn) {
		outcome = "fallback"
	}
	s.metrics.ObserveCheckout(string(order.PaymentMethod), outcome)

	if s.features.EnableOrderEvents {
		if err := s.publisher.PublishOrderCreated(ctx, order, txn); err != nil {
			s.logger.Error("Failed to publish order created event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	s.logger.Info("Checkout completed", logging.Fields{
		"order_id":       order.ID,
		"transaction_id": txn.ID,
		"payment_method": order.PaymentMethod,
		"outcome":        outcome,
	})

	return s.payments.Result(order, txn), nil
}

// replay rebuilds the result of an earlier submission. An order whose
// transaction was never written gets one now.
func (s *OrderService) replay(ctx context.Context, order *models.Order, card *models.CardData) (CheckoutResult, error) {
	txn, err := s.store.GetTransactionByOrderID(ctx, order.ID)
	if errors.IsNotFound(err) {
		s.logger.Warn("Completing checkout without transaction", logging.Fields{"order_id": order.ID})
		txn, err = s.pay(ctx, order, card)
	}
	if err != nil {
		return nil, s.fail(order.PaymentMethod, "replay checkout", err)
	}

	s.metrics.ObserveCheckout(string(order.PaymentMethod), "replayed")
	s.logger.Info("Replayed checkout", logging.Fields{
		"order_id":        order.ID,
		"idempotency_key": order.IdempotencyKey,
	})
	return s.payments.Result(order, txn), nil
}

// pay creates the order's transaction. When a concurrent submission of the
// same order stored its transaction first, that one is returned instead.
func (s *OrderService) pay(ctx context.Context, order *models.Order, card *models.CardData) (*models.Transaction, error) {
	txn, err := s.payments.Pay(ctx, order, card)
	if !stderrors.Is(err, errors.ErrConflict) {
		return txn, err
	}

	s.logger.Info("Transaction already created by a concurrent checkout", logging.Fields{
		"order_id": order.ID,
	})
	return s.store.GetTransactionByOrderID(ctx, order.ID)
}

func (s *OrderService) fail(method models.PaymentMethod, op string, err error) error {
	s.metrics.ObserveCheckout(string(method), "error")
	s.logger.Error("Checkout failed", logging.Fields{
		"op":    op,
		"error": err.Error(),
	})

	var storeErr *errors.StoreError
	if stderrors.As(err, &storeErr) || errors.IsValidation(err) {
		return err
	}
	return errors.NewInternalError("failed to "+op, err)
}

// GetOrder returns the order status view: the order, its short number and
// the PIX fields of its transaction when one exists.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.OrderDetails, error) {
	if s.cachingEnabled() {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn("Order cache read failed", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		} else if cached != nil {
			return cached, nil
		}
	}

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &models.OrderDetails{
		Order:       *order,
		OrderNumber: order.OrderNumber(),
	}

	txn, err := s.store.GetTransactionByOrderID(ctx, id)
	switch {
	case err == nil:
		details.PixQrCodeBase64 = txn.PixQrCodeBase64
		details.PixCopyPaste = txn.PixCopyPaste
	case !errors.IsNotFound(err):
		return nil, err
	}

	if s.cachingEnabled() {
		if err := s.cache.Set(ctx, details); err != nil {
			s.logger.Warn("Order cache write failed", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}

	return details, nil
}

// ApplyPaymentUpdate moves a transaction to the notified status and
// carries the implied status over to its order.
func (s *OrderService) ApplyPaymentUpdate(ctx context.Context, update *models.PaymentUpdate) error {
	if update == nil || !update.Status.Valid() {
		return errors.NewValidationError("status", "unknown payment status")
	}

	txn, err := s.findTransaction(ctx, update)
	if err != nil {
		return err
	}

	if txn.Status == update.Status {
		s.logger.Debug("Payment status unchanged", logging.Fields{
			"transaction_id": txn.ID,
			"status":         txn.Status,
		})
		return nil
	}

	if !txn.Status.CanTransitionTo(update.Status) {
		s.logger.Warn("Ignoring payment status regression", logging.Fields{
			"transaction_id": txn.ID,
			"status":         txn.Status,
			"new_status":     update.Status,
		})
		return nil
	}

	if err := s.store.UpdateTransactionStatus(ctx, txn.ID, update.Status); err != nil {
		return err
	}

	if orderStatus, ok := models.OrderStatusFor(update.Status); ok {
		if err := s.store.UpdateOrderStatus(ctx, txn.OrderID, orderStatus); err != nil {
			return err
		}
	}

	if s.cachingEnabled() {
		if err := s.cache.Delete(ctx, txn.OrderID); err != nil {
			s.logger.Warn("Order cache invalidation failed", logging.Fields{
				"order_id": txn.OrderID,
				"error":    err.Error(),
			})
		}
	}

	s.metrics.ObservePaymentUpdate(string(update.Status))
	s.logger.Info("Payment status updated", logging.Fields{
		"transaction_id":  txn.ID,
		"order_id":        txn.OrderID,
		"previous_status": txn.Status,
		"new_status":      update.Status,
	})
	return nil
}

func (s *OrderService) findTransaction(ctx context.Context, update *models.PaymentUpdate) (*models.Transaction, error) {
	if update.GatewayID != "" {
		txn, err := s.store.GetTransactionByGatewayID(ctx, update.GatewayID)
		if err == nil || !errors.IsNotFound(err) || update.OrderID == "" {
			return txn, err
		}
	}
	if update.OrderID == "" {
		return nil, errors.NewValidationError("gatewayId", "gateway id or order id is required")
	}
	return s.store.GetTransactionByOrderID(ctx, update.OrderID)
}

func (s *OrderService) cachingEnabled() bool {
	return s.features.EnableOrderCaching && s.cache != nil
}

func invalidPaymentMethod() error {
	return errors.NewValidationError("paymentMethod", invalidPaymentMethodMessage)
}
