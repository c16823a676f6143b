package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// ListProducts returns the whole catalog ordered by price.
func (s *PostgresStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, size, image
		FROM products
		ORDER BY price ASC, name ASC
	`)
	if err != nil {
		s.logger.Error("Failed to list products", logging.Fields{"error": err.Error()})
		return nil, errors.NewStoreError("list products", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Size, &p.Image); err != nil {
			return nil, errors.NewStoreError("list products", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("list products", err)
	}

	return products, nil
}

func (s *PostgresStore) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, errors.NewStoreError("count products", err)
	}
	return count, nil
}

// CreateProducts inserts the batch inside one database transaction, so a
// failure leaves no partial catalog behind.
func (s *PostgresStore) CreateProducts(ctx context.Context, reqs []models.CreateProductRequest) ([]*models.Product, error) {
	if err := validateCreateProducts(reqs); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewStoreError("create products", err)
	}
	defer tx.Rollback()

	products := make([]*models.Product, 0, len(reqs))
	for i := range reqs {
		product := &models.Product{
			ID:          uuid.New().String(),
			Name:        reqs[i].Name,
			Description: reqs[i].Description,
			Price:       reqs[i].Price,
			Size:        reqs[i].Size,
			Image:       reqs[i].Image,
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, description, price, size, image)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, product.ID, product.Name, product.Description, product.Price, product.Size, product.Image)
		if err != nil {
			s.logger.Error("Failed to create product", logging.Fields{
				"name":  product.Name,
				"error": err.Error(),
			})
			return nil, errors.NewStoreError("create products", err)
		}
		products = append(products, product)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStoreError("create products", err)
	}

	s.logger.Info("Products created", logging.Fields{"count": len(products)})
	return products, nil
}
