package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
)

// PlaceOrder converts the signed-in user's cart into an order.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	var req struct {
		ShippingAddress string `json:"shipping_address"`
		PaymentMethod   string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	principal := auth.PrincipalFrom(c)
	order, err := h.orders.PlaceOrder(c.Request.Context(), principal.UserID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// QuickCheckout places an order with the profile address and the default
// payment method, no request body needed.
func (h *Handlers) QuickCheckout(c *gin.Context) {
	principal := auth.PrincipalFrom(c)
	order, err := h.orders.QuickCheckout(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListOrders returns the signed-in user's order history, newest first.
func (h *Handlers) ListOrders(c *gin.Context) {
	principal := auth.PrincipalFrom(c)
	orders, err := h.orders.GetUserOrders(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns one of the signed-in user's orders with its lines.
func (h *Handlers) GetOrder(c *gin.Context) {
	principal := auth.PrincipalFrom(c)
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
