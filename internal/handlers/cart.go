package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/identity"
)

// cartIdentity resolves the cart owner for the current request: the user id
// for signed-in requests, a session-scoped token otherwise.
func (h *Handlers) cartIdentity(c *gin.Context) (string, bool) {
	cartID, err := h.resolver.CartIdentity(
		c.Request.Context(),
		auth.PrincipalFrom(c),
		auth.SessionIDFrom(c),
	)
	if err != nil {
		h.handleError(c, err)
		return "", false
	}
	return cartID, true
}

// GetCart returns the requester's cart with lines, live total, and item count.
func (h *Handlers) GetCart(c *gin.Context) {
	cartID, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	cart, err := h.cart.GetCart(c.Request.Context(), cartID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// AddToCart adds a product to the requester's cart.
func (h *Handlers) AddToCart(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cartID, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	line, err := h.cart.AddToCart(c.Request.Context(), cartID, req.ProductID, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

// UpdateCartLine sets a line's quantity. Zero removes the line.
func (h *Handlers) UpdateCartLine(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("lineId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cartID, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	if err := h.cart.UpdateQuantity(c.Request.Context(), cartID, lineID, req.Quantity); err != nil {
		h.handleError(c, err)
		return
	}

	cart, err := h.cart.GetCart(c.Request.Context(), cartID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveCartLine deletes a line from the requester's cart.
func (h *Handlers) RemoveCartLine(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("lineId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return
	}

	cartID, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	if err := h.cart.RemoveLine(c.Request.Context(), cartID, lineID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ClearCart removes all lines from the requester's cart.
func (h *Handlers) ClearCart(c *gin.Context) {
	cartID, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	if err := h.cart.ClearCart(c.Request.Context(), cartID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MergeCart folds the visitor's anonymous cart into the signed-in user's
// cart. Clients call this right after login.
func (h *Handlers) MergeCart(c *gin.Context) {
	principal := auth.PrincipalFrom(c)
	if !principal.Authenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	// The anonymous identity lives in the session, independent of the
	// now-authenticated principal.
	anonymousID, err := h.resolver.CartIdentity(
		c.Request.Context(),
		identity.Principal{},
		auth.SessionIDFrom(c),
	)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if err := h.cart.MergeCart(c.Request.Context(), anonymousID, principal.UserID); err != nil {
		h.handleError(c, err)
		return
	}

	cart, err := h.cart.GetCart(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
