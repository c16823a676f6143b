package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers for the storefront service.
type Handlers struct {
	catalog *service.CatalogService
	orders  *service.OrderService
	store   Pinger
	logger  *logging.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(catalog *service.CatalogService, orders *service.OrderService, store Pinger) *Handlers {
	return &Handlers{
		catalog: catalog,
		orders:  orders,
		store:   store,
		logger:  logging.NewLogger("handlers"),
	}
}

// handleError writes the error response for err. fallback is the message
// used for server-side failures.
func handleError(c *gin.Context, err error, fallback string) {
	if errors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return
	}

	if validationErr, ok := errors.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": validationErr.Message,
			"details": validationErr.Details,
		})
		return
	}

	detail := "internal server error"
	var internalErr *errors.InternalError
	if stderrors.As(err, &internalErr) {
		detail = internalErr.Message
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"message": fallback,
		"error":   detail,
	})
}
