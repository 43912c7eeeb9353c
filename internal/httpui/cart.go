package httpui

import (
	"errors"
	"net/http"

	"github.com/2300031420/Tastoria5/internal/cart"

	"github.com/gin-gonic/gin"
)

type cartItemInput struct {
	ItemID      string `json:"item_id" binding:"required"`
	Delta       int    `json:"delta" binding:"required"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// POST /cart
func (h *Handler) updateCart(c *gin.Context) {
	var input cartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	err := h.cart.AddOrUpdate(c.Request.Context(), input.ItemID, input.Delta, cart.Metadata{
		Name:        input.Name,
		UnitPrice:   input.Price,
		ImageURL:    input.Image,
		Description: input.Description,
	})

	switch {
	case errors.Is(err, cart.ErrMinQuantity), errors.Is(err, cart.ErrNegativePrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, cart.ErrNotLoaded):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": "/sign-in"})
		return
	case err != nil:
		// The mutation stuck in memory; only durability failed.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": h.cart.Lines(),
		"total": h.cart.Total(),
		"count": h.cart.Count(),
	})
}

// GET /cart
func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items": h.cart.Lines(),
		"total": h.cart.Total(),
		"count": h.cart.Count(),
	})
}

// GET /cart/total
func (h *Handler) cartTotal(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"total": h.cart.Total()})
}

// DELETE /cart/:item_id
func (h *Handler) removeCartItem(c *gin.Context) {
	if err := h.cart.Remove(c.Request.Context(), c.Param("item_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
}

// DELETE /cart
func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
