package clients

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

const (
	opCreatePixPayment = "create pix payment"
	defaultBackoff     = 200 * time.Millisecond
	maxErrorBodyBytes  = 512
)

var _ PaymentGateway = (*MercadoPagoClient)(nil)

// MercadoPagoClient calls the Mercado Pago payments API.
type MercadoPagoClient struct {
	baseURL     string
	accessToken string
	maxRetries  int
	backoff     time.Duration
	httpClient  *http.Client
	logger      *logging.Logger
}

// NewMercadoPagoClient creates a client, or returns nil when no access
// token is configured so callers fall back to local PIX payloads.
func NewMercadoPagoClient(cfg config.PaymentGatewayConfig, logger *logging.Logger) *MercadoPagoClient {
	if !cfg.Configured() {
		return nil
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &MercadoPagoClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		maxRetries:  maxRetries,
		backoff:     defaultBackoff,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// WithBackoff overrides the linear retry step.
func (c *MercadoPagoClient) WithBackoff(d time.Duration) *MercadoPagoClient {
	c.backoff = d
	return c
}

type mpPayer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type mpPaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	PaymentMethodID   string  `json:"payment_method_id"`
	ExternalReference string  `json:"external_reference"`
	Payer             mpPayer `json:"payer"`
}

type mpPaymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	StatusDetail       string      `json:"status_detail"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreatePixPayment creates a PIX payment intent. Transport errors, 429 and
// 5xx responses are retried with linear backoff; other failures return
// immediately. The order id is sent as the idempotency key so retries
// never create a second intent.
func (c *MercadoPagoClient) CreatePixPayment(ctx context.Context, req *PixPaymentRequest) (*PixPayment, error) {
	body, err := json.Marshal(mpPaymentRequest{
		TransactionAmount: req.Amount.Float64(),
		Description:       req.Description,
		PaymentMethodID:   "pix",
		ExternalReference: req.OrderID,
		Payer: mpPayer{
			Email:     req.Payer.Email,
			FirstName: req.Payer.FirstName,
			LastName:  req.Payer.LastName,
		},
	})
	if err != nil {
		return nil, &errors.GatewayError{Op: opCreatePixPayment, Err: err}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying payment gateway request", logging.Fields{
				"order_id": req.OrderID,
				"attempt":  attempt + 1,
				"error":    lastErr.Error(),
			})
			if err := sleep(ctx, time.Duration(attempt)*c.backoff); err != nil {
				return nil, &errors.GatewayError{Op: opCreatePixPayment, Err: err}
			}
		}

		payment, err := c.createPixPayment(ctx, req.OrderID, body)
		if err == nil {
			c.logger.Info("PIX payment created", logging.Fields{
				"order_id":   req.OrderID,
				"payment_id": payment.ID,
				"status":     payment.Status,
			})
			return payment, nil
		}

		lastErr = err
		var gwErr *errors.GatewayError
		if !stderrors.As(err, &gwErr) || !gwErr.Retryable() {
			break
		}
	}

	c.logger.Error("Payment gateway request failed", logging.Fields{
		"order_id": req.OrderID,
		"error":    lastErr.Error(),
	})
	return nil, lastErr
}

func (c *MercadoPagoClient) createPixPayment(ctx context.Context, orderID string, body []byte) (*PixPayment, error) {
	url := fmt.Sprintf("%s/v1/payments", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &errors.GatewayError{Op: opCreatePixPayment, Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("X-Idempotency-Key", orderID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &errors.GatewayError{Op: opCreatePixPayment, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &errors.GatewayError{
			Op:         opCreatePixPayment,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	var result mpPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &errors.GatewayError{Op: opCreatePixPayment, StatusCode: resp.StatusCode, Err: err}
	}

	data := result.PointOfInteraction.TransactionData
	if data.QRCode == "" {
		return nil, &errors.GatewayError{
			Op:         opCreatePixPayment,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response carries no qr_code"),
		}
	}

	return &PixPayment{
		ID:           result.ID.String(),
		Status:       result.Status,
		StatusDetail: result.StatusDetail,
		QRCode:       data.QRCode,
		QRCodeBase64: data.QRCodeBase64,
		TicketURL:    data.TicketURL,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
