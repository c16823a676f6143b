package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const transactionColumns = `
		id, order_id, payment_method, amount, status, mercado_pago_id,
		pix_qr_code, pix_qr_code_base64, pix_copy_paste, metadata,
		created_at, updated_at`

// CreateTransaction inserts a fully computed payment attempt.
func (s *PostgresStore) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
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
		GatewayID:       req.GatewayID,
		PixQrCode:       req.PixQrCode,
		PixQrCodeBase64: req.PixQrCodeBase64,
		PixCopyPaste:    req.PixCopyPaste,
		Metadata:        req.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var metadata interface{}
	if txn.Metadata != nil {
		data, err := json.Marshal(txn.Metadata)
		if err != nil {
			return nil, errors.NewStoreError("create transaction", err)
		}
		metadata = string(data)
	}

	query := `INSERT INTO transactions (` + transactionColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		txn.ID,
		txn.OrderID,
		txn.PaymentMethod,
		txn.Amount,
		txn.Status,
		nullString(txn.GatewayID),
		nullString(txn.PixQrCode),
		nullString(txn.PixQrCodeBase64),
		nullString(txn.PixCopyPaste),
		metadata,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Warn("Order already has a transaction", logging.Fields{
				"order_id": req.OrderID,
			})
			return nil, errors.ErrConflict
		}
		s.logger.Error("Failed to create transaction", logging.Fields{
			"order_id": req.OrderID,
			"error":    err.Error(),
		})
		return nil, errors.NewStoreError("create transaction", err)
	}

	s.logger.Info("Transaction created", logging.Fields{
		"transaction_id": txn.ID,
		"order_id":       txn.OrderID,
		"payment_method": txn.PaymentMethod,
	})

	return txn, nil
}

func (s *PostgresStore) GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE order_id = $1`
	return s.getTransaction(ctx, "get transaction by order", query, orderID)
}

func (s *PostgresStore) GetTransactionByGatewayID(ctx context.Context, gatewayID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE mercado_pago_id = $1
		ORDER BY created_at DESC LIMIT 1`
	return s.getTransaction(ctx, "get transaction by gateway id", query, gatewayID)
}

// UpdateTransactionStatus moves a transaction to a new status.
func (s *PostgresStore) UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, s.now(),
	)
	if err != nil {
		return errors.NewStoreError("update transaction status", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}

	s.logger.Info("Transaction status updated", logging.Fields{
		"transaction_id": id,
		"new_status":     status,
	})
	return nil
}

func (s *PostgresStore) getTransaction(ctx context.Context, op, query, arg string) (*models.Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to fetch transaction", logging.Fields{
			"op":    op,
			"error": err.Error(),
		})
		return nil, errors.NewStoreError(op, err)
	}
	return txn, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	var gatewayID, qrCode, qrBase64, copyPaste sql.NullString
	var metadataJSON []byte

	err := row.Scan(
		&txn.ID,
		&txn.OrderID,
		&txn.PaymentMethod,
		&txn.Amount,
		&txn.Status,
		&gatewayID,
		&qrCode,
		&qrBase64,
		&copyPaste,
		&metadataJSON,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &txn.Metadata); err != nil {
			return nil, err
		}
	}

	txn.GatewayID = stringPtr(gatewayID)
	txn.PixQrCode = stringPtr(qrCode)
	txn.PixQrCodeBase64 = stringPtr(qrBase64)
	txn.PixCopyPaste = stringPtr(copyPaste)

	return &txn, nil
}
