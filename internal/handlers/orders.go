package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// IdempotencyKeyHeader lets clients retry a checkout without creating a
// second order.
const IdempotencyKeyHeader = "Idempotency-Key"

// CreateOrder handles POST /api/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind request", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))

	result, err := h.orders.SubmitCheckout(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err, "Error creating order")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	orderID := c.Param("id")

	details, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Error("Error fetching order", logging.Fields{
				"order_id": orderID,
				"error":    err.Error(),
			})
		}
		handleError(c, err, "Error fetching order")
		return
	}

	c.JSON(http.StatusOK, details)
}
