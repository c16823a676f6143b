package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const uniqueViolation = pq.ErrorCode("23505")

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(db *sql.DB, logger *logging.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// OpenPostgres opens and verifies a connection pool.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return errors.NewStoreError("ping", s.db.PingContext(ctx))
}

const orderColumns = `
		id, customer_name, customer_phone, customer_email, delivery_address,
		delivery_cep, delivery_city, delivery_state, delivery_complement,
		items, total_amount, payment_method, status, idempotency_key, created_at`

// CreateOrder inserts a new order.
func (s *PostgresStore) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:                 uuid.New().String(),
		CustomerName:       req.CustomerName,
		CustomerPhone:      req.CustomerPhone,
		CustomerEmail:      req.CustomerEmail,
		DeliveryAddress:    req.DeliveryAddress,
		DeliveryCep:        req.DeliveryCep,
		DeliveryCity:       req.DeliveryCity,
		DeliveryState:      req.DeliveryState,
		DeliveryComplement: req.DeliveryComplement,
		Items:              req.Items,
		TotalAmount:        req.TotalAmount,
		PaymentMethod:      req.PaymentMethod,
		Status:             orderStatusOrDefault(req.Status),
		IdempotencyKey:     req.IdempotencyKey,
		CreatedAt:          s.now(),
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, errors.NewStoreError("create order", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = s.db.ExecContext(ctx, query,
		order.ID,
		order.CustomerName,
		order.CustomerPhone,
		nullString(order.CustomerEmail),
		order.DeliveryAddress,
		order.DeliveryCep,
		order.DeliveryCity,
		order.DeliveryState,
		nullString(order.DeliveryComplement),
		itemsJSON,
		order.TotalAmount,
		order.PaymentMethod,
		order.Status,
		sql.NullString{String: order.IdempotencyKey, Valid: order.IdempotencyKey != ""},
		order.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Warn("Duplicate idempotency key", logging.Fields{
				"idempotency_key": order.IdempotencyKey,
			})
			return nil, errors.ErrConflict
		}
		s.logger.Error("Failed to create order", logging.Fields{
			"error": err.Error(),
		})
		return nil, errors.NewStoreError("create order", err)
	}

	s.logger.Info("Order created", logging.Fields{
		"order_id":       order.ID,
		"payment_method": order.PaymentMethod,
		"total":          order.TotalAmount.String(),
	})

	return order, nil
}

// GetOrder retrieves an order by id.
func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return s.getOrder(ctx, "get order", query, id)
}

// GetOrderByIdempotencyKey retrieves the order created with the given key.
func (s *PostgresStore) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	if key == "" {
		return nil, errors.ErrNotFound
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE idempotency_key = $1`
	return s.getOrder(ctx, "get order by idempotency key", query, key)
}

func (s *PostgresStore) getOrder(ctx context.Context, op, query string, arg string) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to fetch order", logging.Fields{
			"op":    op,
			"error": err.Error(),
		})
		return nil, errors.NewStoreError(op, err)
	}
	return order, nil
}

// UpdateOrderStatus moves an order to a new status.
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if err := validateOrderStatus("update order status", status); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		s.logger.Error("Failed to update order status", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return errors.NewStoreError("update order status", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}

	s.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var itemsJSON []byte
	var email, complement, idempotencyKey sql.NullString

	err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&order.CustomerPhone,
		&email,
		&order.DeliveryAddress,
		&order.DeliveryCep,
		&order.DeliveryCity,
		&order.DeliveryState,
		&complement,
		&itemsJSON,
		&order.TotalAmount,
		&order.PaymentMethod,
		&order.Status,
		&idempotencyKey,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}

	order.CustomerEmail = stringPtr(email)
	order.DeliveryComplement = stringPtr(complement)
	order.IdempotencyKey = idempotencyKey.String

	return &order, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
