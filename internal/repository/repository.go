package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)

	_ OrderCache = (*RedisOrderCache)(nil)
)

// ProductStore persists catalog entries.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	CountProducts(ctx context.Context) (int, error)
	// CreateProducts inserts the whole batch or nothing.
	CreateProducts(ctx context.Context, reqs []models.CreateProductRequest) ([]*models.Product, error)
}

// OrderStore persists checkout orders.
type OrderStore interface {
	// CreateOrder assigns a new id and creation timestamp. A non-empty
	// idempotency key that is already taken yields errors.ErrConflict.
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	// UpdateOrderStatus rejects unknown statuses with a StoreError.
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// TransactionStore persists payment attempts.
type TransactionStore interface {
	// CreateTransaction yields errors.ErrConflict when the order already
	// has a transaction.
	CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error)
	GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error)
	GetTransactionByGatewayID(ctx context.Context, gatewayID string) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error
}

// Store is the Order Store: products, orders and transactions.
type Store interface {
	ProductStore
	OrderStore
	TransactionStore

	Ping(ctx context.Context) error
}

// OrderCache caches the order status view served by GET /api/orders/:id.
type OrderCache interface {
	Get(ctx context.Context, id string) (*models.OrderDetails, error)
	Set(ctx context.Context, details *models.OrderDetails) error
	Delete(ctx context.Context, id string) error
}

func validateCreateOrder(req *models.CreateOrderRequest) error {
	if req == nil {
		return errors.NewStoreError("create order", fmt.Errorf("missing order data"))
	}

	required := []struct {
		name  string
		value string
	}{
		{"customerName", req.CustomerName},
		{"customerPhone", req.CustomerPhone},
		{"deliveryAddress", req.DeliveryAddress},
		{"deliveryCep", req.DeliveryCep},
		{"deliveryCity", req.DeliveryCity},
		{"deliveryState", req.DeliveryState},
		{"paymentMethod", string(req.PaymentMethod)},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return errors.NewStoreError("create order", fmt.Errorf("missing required field %s", field.name))
		}
	}
	if len(req.Items) == 0 {
		return errors.NewStoreError("create order", fmt.Errorf("missing required field items"))
	}
	if req.Status != "" {
		return validateOrderStatus("create order", req.Status)
	}
	return nil
}

func validateOrderStatus(op string, status models.OrderStatus) error {
	if !status.Valid() {
		return errors.NewStoreError(op, fmt.Errorf("unknown order status %q", status))
	}
	return nil
}

func validateCreateProducts(reqs []models.CreateProductRequest) error {
	for i := range reqs {
		if strings.TrimSpace(reqs[i].Name) == "" {
			return errors.NewStoreError("create products", fmt.Errorf("product %d has no name", i))
		}
		if reqs[i].Price.IsNegative() {
			return errors.NewStoreError("create products", fmt.Errorf("product %q has a negative price", reqs[i].Name))
		}
	}
	return nil
}

func validateCreateTransaction(req *models.CreateTransactionRequest) error {
	if req == nil || req.OrderID == "" || req.PaymentMethod == "" {
		return errors.NewStoreError("create transaction", fmt.Errorf("missing required transaction fields"))
	}
	return nil
}

func orderStatusOrDefault(status models.OrderStatus) models.OrderStatus {
	if status == "" {
		return models.OrderStatusPending
	}
	return status
}

func transactionStatusOrDefault(status models.TransactionStatus) models.TransactionStatus {
	if status == "" {
		return models.TransactionStatusPending
	}
	return status
}
