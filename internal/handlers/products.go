package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

// ListProducts handles GET /api/products
func (h *Handlers) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.logger.Error("Error fetching products", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// SeedProducts handles POST /api/seed-products
func (h *Handlers) SeedProducts(c *gin.Context) {
	result, err := h.catalog.Seed(c.Request.Context())
	if err != nil {
		h.logger.Error("Error seeding products", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error seeding products"})
		return
	}

	c.JSON(http.StatusOK, result)
}
