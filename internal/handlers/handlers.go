// Package handlers contains the gin HTTP handlers for the storefront API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/identity"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

// Handlers holds the services used by the HTTP handlers.
type Handlers struct {
	catalog  *service.CatalogService
	cart     *service.CartService
	orders   *service.OrderService
	resolver *identity.Resolver
	logger   *logging.Logger
}

// New creates the handler set.
func New(
	catalog *service.CatalogService,
	cart *service.CartService,
	orders *service.OrderService,
	resolver *identity.Resolver,
) *Handlers {
	return &Handlers{
		catalog:  catalog,
		cart:     cart,
		orders:   orders,
		resolver: resolver,
		logger:   logging.NewLogger("handlers"),
	}
}

// handleError maps service errors onto HTTP responses. Unmapped errors are
// logged and returned as opaque 500s.
func (h *Handlers) handleError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperrors.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, apperrors.ErrProductUnavailable),
		errors.Is(err, apperrors.ErrLineNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrEmptyCart),
		errors.Is(err, apperrors.ErrConcurrencyConflict),
		errors.Is(err, apperrors.ErrCategoryInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	default:
		h.logger.Error("Unhandled error", logging.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
