package service

import (
	"context"
	"sync"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

const (
	seededMessage        = "Products seeded successfully"
	alreadySeededMessage = "Products already exist"
)

// SeedProducts is the catalog inserted into an empty store.
var SeedProducts = []models.CreateProductRequest{
	{
		Name:        "Açaí 300ml",
		Description: "Açaí cremoso com granola e banana",
		Price:       models.MustMoney("12.90"),
		Size:        "300ml",
		Image:       "/assets/generated_images/Small_açaí_bowl_product_e5ef7191.png",
	},
	{
		Name:        "Açaí 500ml",
		Description: "Açaí tradicional com frutas e complementos",
		Price:       models.MustMoney("18.90"),
		Size:        "500ml",
		Image:       "/assets/generated_images/Large_açaí_bowl_product_185591f7.png",
	},
	{
		Name:        "Combo Quero+ Açaí",
		Description: "2 açaís de 300ml - Economize!",
		Price:       models.MustMoney("22.90"),
		Size:        "2x 300ml",
		Image:       "/assets/generated_images/Açaí_combo_product_image_5986e6cc.png",
	},
}

// SeedResult reports what a seeding call did.
type SeedResult struct {
	Message string `json:"message"`
	Seeded  int    `json:"-"`
}

type CatalogService struct {
	seedMu   sync.Mutex
	products repository.ProductStore
	logger   *logging.Logger
}

func NewCatalogService(products repository.ProductStore) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   logging.NewLogger("catalog-service"),
	}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.products.ListProducts(ctx)
}

// Seed inserts the seed catalog when the store has no products. It is a
// no-op otherwise. The set is inserted atomically, so a failed attempt can
// simply be retried.
func (s *CatalogService) Seed(ctx context.Context) (*SeedResult, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	count, err := s.products.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		s.logger.Info("Catalog already seeded", logging.Fields{"count": count})
		return &SeedResult{Message: alreadySeededMessage}, nil
	}

	if _, err := s.products.CreateProducts(ctx, SeedProducts); err != nil {
		s.logger.Error("Failed to seed products", logging.Fields{"error": err.Error()})
		return nil, err
	}

	s.logger.Info("Catalog seeded", logging.Fields{"count": len(SeedProducts)})
	return &SeedResult{Message: seededMessage, Seeded: len(SeedProducts)}, nil
}
