package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// MemoryStore is an in-process Store used for local runs and tests.
// Records are copied on the way in and out so callers never share state
// with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	products     []*models.Product
	orders       map[string]*models.Order
	orderKeys    map[string]string
	transactions []*models.Transaction
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[string]*models.Order),
		orderKeys: make(map[string]string),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		products = append(products, &cp)
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Price.LessThan(products[j].Price.Decimal)
	})
	return products, nil
}

func (s *MemoryStore) CountProducts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

func (s *MemoryStore) CreateProducts(ctx context.Context, reqs []models.CreateProductRequest) ([]*models.Product, error) {
	if err := validateCreateProducts(reqs); err != nil {
		return nil, err
	}

	created := make([]*models.Product, 0, len(reqs))
	for i := range reqs {
		created = append(created, &models.Product{
			ID:          uuid.New().String(),
			Name:        reqs[i].Name,
			Description: reqs[i].Description,
			Price:       reqs[i].Price,
			Size:        reqs[i].Size,
			Image:       reqs[i].Image,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Product, 0, len(created))
	for _, p := range created {
		s.products = append(s.products, p)
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.IdempotencyKey != "" {
		if _, ok := s.orderKeys[req.IdempotencyKey]; ok {
			return nil, errors.ErrConflict
		}
	}

	order := &models.Order{
		ID:                 uuid.New().String(),
		CustomerName:       req.CustomerName,
		CustomerPhone:      req.CustomerPhone,
		CustomerEmail:      copyString(req.CustomerEmail),
		DeliveryAddress:    req.DeliveryAddress,
		DeliveryCep:        req.DeliveryCep,
		DeliveryCity:       req.DeliveryCity,
		DeliveryState:      req.DeliveryState,
		DeliveryComplement: copyString(req.DeliveryComplement),
		Items:              append([]models.OrderItem(nil), req.Items...),
		TotalAmount:        req.TotalAmount,
		PaymentMethod:      req.PaymentMethod,
		Status:             orderStatusOrDefault(req.Status),
		IdempotencyKey:     req.IdempotencyKey,
		CreatedAt:          s.now(),
	}

	s.orders[order.ID] = order
	if order.IdempotencyKey != "" {
		s.orderKeys[order.IdempotencyKey] = order.ID
	}

	return copyOrder(order), nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return copyOrder(order), nil
}

func (s *MemoryStore) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.orderKeys[key]
	if !ok || key == "" {
		return nil, errors.ErrNotFound
	}
	return copyOrder(s.orders[id]), nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if err := validateOrderStatus("update order status", status); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return errors.ErrNotFound
	}
	order.Status = status
	return nil
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	if err := validateCreateTransaction(req); err != nil {
		return nil, err
	}

	now := s.now()
	txn := &models.Transaction{
		ID:              uuid.New().String(),
		OrderID:         req.OrderID,
		PaymentMethod:   req.PaymentMethod,
		Amount:          req.Amount,
		Status:          transactionStatusOrDefault(req.Status),
		GatewayID:       copyString(req.GatewayID),
		PixQrCode:       copyString(req.PixQrCode),
		PixQrCodeBase64: copyString(req.PixQrCodeBase64),
		PixCopyPaste:    copyString(req.PixCopyPaste),
		Metadata:        copyMetadata(req.Metadata),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[txn.OrderID]; !ok {
		return nil, &errors.StoreError{Op: "create transaction", Err: fmt.Errorf("order %s does not exist", txn.OrderID)}
	}
	for _, existing := range s.transactions {
		if existing.OrderID == txn.OrderID {
			return nil, errors.ErrConflict
		}
	}
	s.transactions = append(s.transactions, txn)

	return copyTransaction(txn), nil
}

func (s *MemoryStore) GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	return s.findTransaction(func(t *models.Transaction) bool { return t.OrderID == orderID })
}

func (s *MemoryStore) GetTransactionByGatewayID(ctx context.Context, gatewayID string) (*models.Transaction, error) {
	return s.findTransaction(func(t *models.Transaction) bool {
		return t.GatewayID != nil && *t.GatewayID == gatewayID
	})
}

func (s *MemoryStore) UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, txn := range s.transactions {
		if txn.ID == id {
			txn.Status = status
			txn.UpdatedAt = s.now()
			return nil
		}
	}
	return errors.ErrNotFound
}

func (s *MemoryStore) findTransaction(match func(*models.Transaction) bool) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.transactions) - 1; i >= 0; i-- {
		if match(s.transactions[i]) {
			return copyTransaction(s.transactions[i]), nil
		}
	}
	return nil, errors.ErrNotFound
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.CustomerEmail = copyString(o.CustomerEmail)
	cp.DeliveryComplement = copyString(o.DeliveryComplement)
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp
}

func copyTransaction(t *models.Transaction) *models.Transaction {
	cp := *t
	cp.GatewayID = copyString(t.GatewayID)
	cp.PixQrCode = copyString(t.PixQrCode)
	cp.PixQrCodeBase64 = copyString(t.PixQrCodeBase64)
	cp.PixCopyPaste = copyString(t.PixCopyPaste)
	cp.Metadata = copyMetadata(t.Metadata)
	return &cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyMetadata(m models.Metadata) models.Metadata {
	if m == nil {
		return nil
	}
	cp := make(models.Metadata, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
