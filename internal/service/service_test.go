package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pix"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

type fakeGateway struct {
	mu       sync.Mutex
	payment  *clients.PixPayment
	err      error
	delay    time.Duration
	requests []*clients.PixPaymentRequest
}

func (g *fakeGateway) CreatePixPayment(ctx context.Context, req *clients.PixPaymentRequest) (*clients.PixPayment, error) {
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.payment, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(content string) (string, error) {
	return "", fmt.Errorf("renderer unavailable")
}

// countingStore records order and transaction writes.
type countingStore struct {
	*repository.MemoryStore
	orders       int32
	transactions int32
	failCreate   error
}

func (s *countingStore) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	order, err := s.MemoryStore.CreateOrder(ctx, req)
	if err == nil {
		atomic.AddInt32(&s.orders, 1)
	}
	return order, err
}

func (s *countingStore) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	txn, err := s.MemoryStore.CreateTransaction(ctx, req)
	if err == nil {
		atomic.AddInt32(&s.transactions, 1)
	}
	return txn, err
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*models.OrderDetails
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*models.OrderDetails)}
}

func (c *memoryCache) Get(ctx context.Context, id string) (*models.OrderDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[id], nil
}

func (c *memoryCache) Set(ctx context.Context, details *models.OrderDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[details.ID] = details
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.deletes++
	return nil
}

type recordingPublisher struct {
	created []*models.Order
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, order *models.Order, txn *models.Transaction) error {
	p.created = append(p.created, order)
	return nil
}

func (p *recordingPublisher) PublishPaymentUpdated(ctx context.Context, data events.PaymentUpdatedData) error {
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Pix: config.PixConfig{
			MerchantName:     "Acai Prime",
			MerchantCity:     "SAO PAULO",
			PlaceholderEmail: "customer@example.com",
			QRCodeSize:       128,
		},
	}
}

type fixture struct {
	store    *countingStore
	gateway  *fakeGateway
	payments *PaymentService
	orders   *OrderService
}

func newFixture(t *testing.T, cfg *config.Config, gateway *fakeGateway, renderer pix.Renderer, cache repository.OrderCache, publisher *recordingPublisher) *fixture {
	t.Helper()

	if cfg == nil {
		cfg = testConfig()
	}
	if renderer == nil {
		renderer = pix.NewQRRenderer(cfg.Pix.QRCodeSize)
	}

	store := &countingStore{MemoryStore: repository.NewMemoryStore()}

	var gw clients.PaymentGateway
	if gateway != nil {
		gw = gateway
	}

	payments := NewPaymentService(gw, store, renderer, cfg, nil)

	var pub events.Publisher
	if publisher != nil {
		pub = publisher
	}

	return &fixture{
		store:    store,
		gateway:  gateway,
		payments: payments,
		orders:   NewOrderService(store, payments, cache, pub, cfg, nil),
	}
}

func checkoutRequest(method models.PaymentMethod) *models.CheckoutRequest {
	return &models.CheckoutRequest{
		CustomerName:    "Maria da Silva",
		CustomerPhone:   "11999999999",
		DeliveryAddress: "Rua das Flores, 100",
		DeliveryCep:     "01000-000",
		DeliveryCity:    "São Paulo",
		DeliveryState:   "SP",
		Items: []models.OrderItem{
			{ProductID: "p2", Name: "Açaí 500ml", Price: models.MustMoney("18.90"), Quantity: 1},
		},
		TotalAmount:   models.MustMoney("18.90"),
		PaymentMethod: method,
	}
}

func TestSubmitCheckout_PixWithoutGateway(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil, nil, nil, nil)

	result, err := f.orders.SubmitCheckout(ctx, checkoutRequest(models.PaymentMethodPix))
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}

	pixResult, ok := result.(*PixResult)
	if !ok {
		t.Fatalf("Expected *PixResult, got %T", result)
	}
	if !strings.HasPrefix(pixResult.PixQrCode, "00020126580014br.gov.bcb.pix0136"+pixResult.OrderID) {
		t.Errorf("Unexpected fallback payload %q", pixResult.PixQrCode)
	}
	if !strings.Contains(pixResult.PixQrCode, "540"+"18.90"+"5802BR") {
		t.Errorf("Expected amount in payload, got %q", pixResult.PixQrCode)
	}
	if pixResult.PixCopyPaste != pixResult.PixQrCode {
		t.Error("Expected copy-paste to equal the PIX code")
	}
	if pixResult.PixQrCodeBase64 == "" {
		t.Error("Expected a rendered QR image")
	}
	if pixResult.Degraded != nil {
		t.Error("Expected degraded flag to be hidden by default")
	}

	txn, err := f.store.GetTransactionByOrderID(ctx, pixResult.OrderID)
	if err != nil {
		t.Fatalf("GetTransactionByOrderID: %v", err)
	}
	if txn.GatewayID != nil {
		t.Error("Expected no gateway id on fallback transaction")
	}
	if txn.Metadata["source"] != "fallback" || txn.Metadata["reason"] != "gateway_not_configured" {
		t.Errorf("Unexpected metadata: %v", txn.Metadata)
	}
	if txn.Status != models.TransactionStatusPending {
		t.Errorf("Expected pending transaction, got %s", txn.Status)
	}
}

func TestSubmitCheckout_PixGatewaySuccess(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{payment: &clients.PixPayment{
		ID:           "1234567890",
		Status:       "pending",
		StatusDetail: "pending_waiting_transfer",
		QRCode:       "00020126360014br.gov.bcb.pix-gateway",
	}}
	f := newFixture(t, nil, gateway, nil, nil, nil)

	req := checkoutRequest(models.PaymentMethodPix)
	req.CustomerEmail = nil
	result, err := f.orders.SubmitCheckout(ctx, req)
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}

	pixResult := result.(*PixResult)
	if pixResult.PixQrCode != gateway.payment.QRCode || pixResult.PixCopyPaste != gateway.payment.QRCode {
		t.Errorf("Expected gateway PIX code, got %q", pixResult.PixQrCode)
	}
	if pixResult.PixQrCodeBase64 == "" {
		t.Error("Expected a rendered QR image")
	}

	if len(gateway.requests) != 1 {
		t.Fatalf("Expected 1 gateway call, got %d", len(gateway.requests))
	}
	sent := gateway.requests[0]
	if sent.Payer.Email != "customer@example.com" {
		t.Errorf("Expected placeholder email, got %q", sent.Payer.Email)
	}
	if sent.Payer.FirstName != "Maria" || sent.Payer.LastName != "da Silva" {
		t.Errorf("Unexpected payer name split: %+v", sent.Payer)
	}
	if sent.Description != "Pedido #"+pixResult.OrderID {
		t.Errorf("Unexpected description %q", sent.Description)
	}

	txn, _ := f.store.GetTransactionByOrderID(ctx, pixResult.OrderID)
	if txn.GatewayID == nil || *txn.GatewayID != "1234567890" {
		t.Errorf("Expected gateway id to be stored, got %v", txn.GatewayID)
	}
	if txn.Metadata["source"] != "gateway" {
		t.Errorf("Expected gateway source, got %v", txn.Metadata["source"])
	}
}

func TestSubmitCheckout_PixGatewayFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{err: &errors.GatewayError{Op: "create pix payment", StatusCode: 503, Err: fmt.Errorf("unavailable")}}
	cfg := testConfig()
	cfg.Features.ExposeDegradedPix = true
	f := newFixture(t, cfg, gateway, nil, nil, nil)

	result, err := f.orders.SubmitCheckout(ctx, checkoutRequest(models.PaymentMethodPix))
	if err != nil {
		t.Fatalf("Expected gateway failure to be hidden, got %v", err)
	}

	pixResult := result.(*PixResult)
	if pixResult.PixQrCode == "" || pixResult.PixCopyPaste == "" {
		t.Error("Expected non-empty PIX fields on fallback")
	}
	if pixResult.Degraded == nil || !*pixResult.Degraded {
		t.Error("Expected degraded flag to be set")
	}

	txn, _ := f.store.GetTransactionByOrderID(ctx, pixResult.OrderID)
	if txn.Metadata["reason"] != "gateway_error" {
		t.Errorf("Expected gateway_error reason, got %v", txn.Metadata["reason"])
	}
	if _, ok := txn.Metadata["error"]; !ok {
		t.Error("Expected gateway error in metadata")
	}
}

func TestSubmitCheckout_QRRenderFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, nil, nil, failingRenderer{}, nil, nil)

	result, err := f.orders.SubmitCheckout(context.Background(), checkoutRequest(models.PaymentMethodPix))
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}

	pixResult := result.(*PixResult)
	if pixResult.PixQrCodeBase64 != "" {
		t.Errorf("Expected empty QR image, got %q", pixResult.PixQrCodeBase64)
	}
	if pixResult.PixQrCode == "" {
		t.Error("Expected PIX code despite QR failure")
	}
}

func TestSubmitCheckout_GatewayQRFallsBackToGatewayImage(t *testing.T) {
	gateway := &fakeGateway{payment: &clients.PixPayment{
		ID:           "1",
		QRCode:       "000201-gateway",
		QRCodeBase64: "data:image/png;base64,iVBORw0KGgo=",
	}}
	f := newFixture(t, nil, gateway, failingRenderer{}, nil, nil)

	result, err := f.orders.SubmitCheckout(context.Background(), checkoutRequest(models.PaymentMethodPix))
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}
	if got := result.(*PixResult).PixQrCodeBase64; got != "iVBORw0KGgo=" {
		t.Errorf("Expected stripped gateway image, got %q", got)
	}
}

func TestSubmitCheckout_CreditCardKeepsOnlyLast4(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{}
	f := newFixture(t, nil, gateway, nil, nil, nil)

	req := checkoutRequest(models.PaymentMethodCreditCard)
	req.CardData = &models.CardData{
		CardNumber: "4111 1111 1111 4242",
		CardName:   "MARIA DA SILVA",
		CardExpiry: "12/29",
		CardCvv:    "987",
	}

	result, err := f.orders.SubmitCheckout(ctx, req)
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}

	cardResult, ok := result.(*CreditCardResult)
	if !ok {
		t.Fatalf("Expected *CreditCardResult, got %T", result)
	}
	if cardResult.Status != models.TransactionStatusPending || cardResult.Message == "" {
		t.Errorf("Unexpected card result: %+v", cardResult)
	}
	if len(gateway.requests) != 0 {
		t.Error("Expected the gateway not to be called for card checkouts")
	}

	txn, _ := f.store.GetTransactionByOrderID(ctx, cardResult.OrderID)
	if txn.Metadata["cardLast4"] != "4242" {
		t.Errorf("Expected last4 4242, got %v", txn.Metadata["cardLast4"])
	}
	if txn.PixQrCode != nil || txn.PixCopyPaste != nil {
		t.Error("Expected no PIX fields on card transaction")
	}

	if len(txn.Metadata) != 3 {
		t.Errorf("Expected note, timestamp and cardLast4 only, got %v", txn.Metadata)
	}
	stored, _ := json.Marshal(txn.Metadata)
	for _, secret := range []string{"4111", "12/29", "987", "MARIA DA SILVA"} {
		if strings.Contains(string(stored), secret) {
			t.Errorf("Transaction leaked card data %q: %s", secret, stored)
		}
	}
}

func TestSubmitCheckout_CreditCardWithoutCardData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil, nil, nil, nil)

	result, err := f.orders.SubmitCheckout(ctx, checkoutRequest(models.PaymentMethodCreditCard))
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}

	txn, _ := f.store.GetTransactionByOrderID(ctx, result.CheckoutOrderID())
	if txn.Metadata["cardLast4"] != "****" {
		t.Errorf("Expected ****, got %v", txn.Metadata["cardLast4"])
	}
}

func TestSubmitCheckout_InvalidPaymentMethod(t *testing.T) {
	f := newFixture(t, nil, nil, nil, nil, nil)

	_, err := f.orders.SubmitCheckout(context.Background(), checkoutRequest("bitcoin"))

	ve, ok := errors.AsValidation(err)
	if !ok {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if ve.Field != "paymentMethod" || ve.Message != "Invalid payment method" {
		t.Errorf("Unexpected validation error: %+v", ve)
	}
	if f.store.orders != 0 || f.store.transactions != 0 {
		t.Errorf("Expected nothing persisted, got %d orders and %d transactions", f.store.orders, f.store.transactions)
	}
}

func TestSubmitCheckout_TotalMismatch(t *testing.T) {
	f := newFixture(t, nil, nil, nil, nil, nil)

	req := checkoutRequest(models.PaymentMethodPix)
	req.TotalAmount = models.MustMoney("10.00")

	_, err := f.orders.SubmitCheckout(context.Background(), req)
	ve, ok := errors.AsValidation(err)
	if !ok || ve.Field != "totalAmount" {
		t.Fatalf("Expected totalAmount validation error, got %v", err)
	}
	if f.store.orders != 0 {
		t.Error("Expected no order to be persisted")
	}
}

func TestSubmitCheckout_StoreFailure(t *testing.T) {
	f := newFixture(t, nil, nil, nil, nil, nil)
	f.store.failCreate = &errors.StoreError{Op: "create order", Err: fmt.Errorf("connection refused")}

	_, err := f.orders.SubmitCheckout(context.Background(), checkoutRequest(models.PaymentMethodPix))

	var storeErr *errors.StoreError
	if !stderrors.As(err, &storeErr) {
		t.Errorf("Expected StoreError, got %v", err)
	}
	if f.store.transactions != 0 {
		t.Error("Expected no transaction to be persisted")
	}
}

func TestSubmitCheckout_UnexpectedFailureIsInternal(t *testing.T) {
	f := newFixture(t, nil, nil, nil, nil, nil)
	f.store.failCreate = fmt.Errorf("boom")

	_, err := f.orders.SubmitCheckout(context.Background(), checkoutRequest(models.PaymentMethodPix))

	var internalErr *errors.InternalError
	if !stderrors.As(err, &internalErr) {
		t.Errorf("Expected InternalError, got %v", err)
	}
}

func TestSubmitCheckout_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{payment: &clients.PixPayment{ID: "42", QRCode: "000201-gateway"}}
	f := newFixture(t, nil, gateway, nil, nil, nil)

	req := checkoutRequest(models.PaymentMethodPix)
	req.IdempotencyKey = "cart-7"

	first, err := f.orders.SubmitCheckout(ctx, req)
	if err != nil {
		t.Fatalf("first SubmitCheckout: %v", err)
	}
	second, err := f.orders.SubmitCheckout(ctx, req)
	if err != nil {
		t.Fatalf("second SubmitCheckout: %v", err)
	}

	if first.CheckoutOrderID() != second.CheckoutOrderID() {
		t.Errorf("Expected replay to return order %s, got %s", first.CheckoutOrderID(), second.CheckoutOrderID())
	}
	if first.(*PixResult).PixQrCode != second.(*PixResult).PixQrCode {
		t.Error("Expected replay to return the same PIX code")
	}
	if f.store.orders != 1 || f.store.transactions != 1 {
		t.Errorf("Expected 1 order and 1 transaction, got %d and %d", f.store.orders, f.store.transactions)
	}
	if len(gateway.requests) != 1 {
		t.Errorf("Expected 1 gateway call, got %d", len(gateway.requests))
	}
}

func TestSubmitCheckout_ReplayCompletesMissingTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil, nil, nil, nil)

	req := checkoutRequest(models.PaymentMethodPix)
	req.IdempotencyKey = "cart-8"
	order, err := f.store.MemoryStore.CreateOrder(ctx, req.ToCreateOrderRequest())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	result, err := f.orders.SubmitCheckout(ctx, req)
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}
	if result.CheckoutOrderID() != order.ID {
		t.Errorf("Expected order %s, got %s", order.ID, result.CheckoutOrderID())
	}
	if f.store.transactions != 1 {
		t.Errorf("Expected the missing transaction to be created, got %d", f.store.transactions)
	}
}

func TestSubmitCheckout_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		payment: &clients.PixPayment{ID: "mp-1", QRCode: "000201-gateway"},
		delay:   100 * time.Millisecond,
	}
	f := newFixture(t, nil, gateway, nil, nil, nil)

	results := make([]CheckoutResult, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := checkoutRequest(models.PaymentMethodPix)
			req.IdempotencyKey = "same-key"
			results[i], errs[i] = f.orders.SubmitCheckout(ctx, req)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
	}
	if results[0].CheckoutOrderID() != results[1].CheckoutOrderID() {
		t.Errorf("Expected one order, got %s and %s", results[0].CheckoutOrderID(), results[1].CheckoutOrderID())
	}
	if f.store.orders != 1 || f.store.transactions != 1 {
		t.Errorf("Expected 1 order and 1 transaction, got %d and %d", f.store.orders, f.store.transactions)
	}
	if results[0].(*PixResult).PixQrCode != results[1].(*PixResult).PixQrCode {
		t.Error("Expected both submissions to return the stored PIX code")
	}
}

func TestSubmitCheckout_PublishesOrderCreated(t *testing.T) {
	publisher := &recordingPublisher{}
	cfg := testConfig()
	cfg.Features.EnableOrderEvents = true
	f := newFixture(t, cfg, nil, nil, nil, publisher)

	result, err := f.orders.SubmitCheckout(context.Background(), checkoutRequest(models.PaymentMethodPix))
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}

	if len(publisher.created) != 1 || publisher.created[0].ID != result.CheckoutOrderID() {
		t.Errorf("Expected one order.created for %s, got %v", result.CheckoutOrderID(), publisher.created)
	}
}

func TestSubmitCheckout_EventsDisabled(t *testing.T) {
	publisher := &recordingPublisher{}
	f := newFixture(t, nil, nil, nil, nil, publisher)

	if _, err := f.orders.SubmitCheckout(context.Background(), checkoutRequest(models.PaymentMethodPix)); err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}
	if len(publisher.created) != 0 {
		t.Error("Expected no events when publication is disabled")
	}
}

func TestGetOrder_AfterCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil, nil, nil, nil)

	result, err := f.orders.SubmitCheckout(ctx, checkoutRequest(models.PaymentMethodPix))
	if err != nil {
		t.Fatalf("SubmitCheckout: %v", err)
	}

	details, err := f.orders.GetOrder(ctx, result.CheckoutOrderID())
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}

	if details.Status != models.OrderStatusPending {
		t.Errorf("Expected pending, got %s", details.Status)
	}
	if details.OrderNumber != strings.ToUpper(result.CheckoutOrderID()[:8]) {
		t.Errorf("Unexpected order number %s", details.OrderNumber)
	}
	if details.PixCopyPaste == nil || *details.PixCopyPaste != result.(*PixResult).PixCopyPaste {
		t.Error("Expected PIX copy-paste on the order view")
	}
}

func TestGetOrder_WithoutTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil, nil, nil, nil)

	order, _ := f.store.MemoryStore.CreateOrder(ctx, checkoutRequest(models.PaymentMethodPix).ToCreateOrderRequest())

	details, err := f.orders.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if details.PixQrCodeBase64 != nil || details.PixCopyPaste != nil {
		t.Error("Expected no PIX fields without a transaction")
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t, nil, nil, nil, nil, nil)

	_, err := f.orders.GetOrder(context.Background(), "missing")
	if !errors.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestGetOrder_UsesCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	cfg := testConfig()
	cfg.Features.EnableOrderCaching = true
	f := newFixture(t, cfg, nil, nil, cache, nil)

	result, _ := f.orders.SubmitCheckout(ctx, checkoutRequest(models.PaymentMethodPix))
	id := result.CheckoutOrderID()

	if _, err := f.orders.GetOrder(ctx, id); err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if _, ok := cache.entries[id]; !ok {
		t.Fatal("Expected order view to be cached")
	}

	cache.entries[id].OrderNumber = "CACHED"
	details, _ := f.orders.GetOrder(ctx, id)
	if details.OrderNumber != "CACHED" {
		t.Error("Expected cached view to be served")
	}
}

func TestApplyPaymentUpdate(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	cfg := testConfig()
	cfg.Features.EnableOrderCaching = true
	gateway := &fakeGateway{payment: &clients.PixPayment{ID: "mp-9", QRCode: "000201-gateway"}}
	f := newFixture(t, cfg, gateway, nil, cache, nil)

	result, _ := f.orders.SubmitCheckout(ctx, checkoutRequest(models.PaymentMethodPix))
	id := result.CheckoutOrderID()
	f.orders.GetOrder(ctx, id)

	err := f.orders.ApplyPaymentUpdate(ctx, &models.PaymentUpdate{GatewayID: "mp-9", Status: models.TransactionStatusApproved})
	if err != nil {
		t.Fatalf("ApplyPaymentUpdate: %v", err)
	}

	txn, _ := f.store.GetTransactionByOrderID(ctx, id)
	if txn.Status != models.TransactionStatusApproved {
		t.Errorf("Expected approved transaction, got %s", txn.Status)
	}
	order, _ := f.store.GetOrder(ctx, id)
	if order.Status != models.OrderStatusPaid {
		t.Errorf("Expected paid order, got %s", order.Status)
	}
	if _, ok := cache.entries[id]; ok {
		t.Error("Expected cached view to be invalidated")
	}
}

func TestApplyPaymentUpdate_ByOrderID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil, nil, nil, nil)

	result, _ := f.orders.SubmitCheckout(ctx, checkoutRequest(models.PaymentMethodPix))
	id := result.CheckoutOrderID()

	err := f.orders.ApplyPaymentUpdate(ctx, &models.PaymentUpdate{GatewayID: "unknown", OrderID: id, Status: models.TransactionStatusRejected})
	if err != nil {
		t.Fatalf("ApplyPaymentUpdate: %v", err)
	}

	order, _ := f.store.GetOrder(ctx, id)
	if order.Status != models.OrderStatusCancelled {
		t.Errorf("Expected cancelled order, got %s", order.Status)
	}
}

func TestApplyPaymentUpdate_IgnoresRegressions(t *testing.T) {
	tests := []struct {
		name      string
		first     models.TransactionStatus
		late      models.TransactionStatus
		wantTxn   models.TransactionStatus
		wantOrder models.OrderStatus
	}{
		{"pending after approved", models.TransactionStatusApproved, models.TransactionStatusPending, models.TransactionStatusApproved, models.OrderStatusPaid},
		{"approved after cancelled", models.TransactionStatusCancelled, models.TransactionStatusApproved, models.TransactionStatusCancelled, models.OrderStatusCancelled},
		{"approved after rejected", models.TransactionStatusRejected, models.TransactionStatusApproved, models.TransactionStatusRejected, models.OrderStatusCancelled},
		{"refund after approved", models.TransactionStatusApproved, models.TransactionStatusCancelled, models.TransactionStatusCancelled, models.OrderStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			gateway := &fakeGateway{payment: &clients.PixPayment{ID: "mp-7", QRCode: "000201-gateway"}}
			f := newFixture(t, nil, gateway, nil, nil, nil)

			result, err := f.orders.SubmitCheckout(ctx, checkoutRequest(models.PaymentMethodPix))
			if err != nil {
				t.Fatalf("SubmitCheckout: %v", err)
			}
			id := result.CheckoutOrderID()

			for _, status := range []models.TransactionStatus{tt.first, tt.late} {
				if err := f.orders.ApplyPaymentUpdate(ctx, &models.PaymentUpdate{GatewayID: "mp-7", Status: status}); err != nil {
					t.Fatalf("ApplyPaymentUpdate(%s): %v", status, err)
				}
			}

			txn, _ := f.store.GetTransactionByOrderID(ctx, id)
			if txn.Status != tt.wantTxn {
				t.Errorf("Expected transaction %s, got %s", tt.wantTxn, txn.Status)
			}
			order, _ := f.store.GetOrder(ctx, id)
			if order.Status != tt.wantOrder {
				t.Errorf("Expected order %s, got %s", tt.wantOrder, order.Status)
			}
		})
	}
}

func TestApplyPaymentUpdate_Unknown(t *testing.T) {
	f := newFixture(t, nil, nil, nil, nil, nil)

	err := f.orders.ApplyPaymentUpdate(context.Background(), &models.PaymentUpdate{GatewayID: "nope", Status: models.TransactionStatusApproved})
	if !errors.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}

	err = f.orders.ApplyPaymentUpdate(context.Background(), &models.PaymentUpdate{GatewayID: "nope", Status: "weird"})
	if !errors.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		input string
		first string
		last  string
	}{
		{"Maria", "Maria", ""},
		{"Maria da Silva", "Maria", "da Silva"},
		{"  João   Souza ", "João", "Souza"},
		{"", "", ""},
	}

	for _, tt := range tests {
		first, last := SplitName(tt.input)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", tt.input, first, last, tt.first, tt.last)
		}
	}
}
