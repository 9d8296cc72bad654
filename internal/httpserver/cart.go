package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"univendor/internal/api"
	cartsvc "univendor/internal/service/cart"
)

func (h *handlers) listCart(c *gin.Context) {
	u, _ := currentUser(c)
	items, err := h.deps.Cart.List(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toAPICart(items))
}

func (h *handlers) addCartItem(c *gin.Context) {
	u, _ := currentUser(c)
	var req api.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	item, err := h.deps.Cart.Add(c.Request.Context(), u.ID, cartsvc.AddInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toAPICartItem(*item))
}

// updateCartItem serves both PUT and PATCH.
func (h *handlers) updateCartItem(c *gin.Context) {
	u, _ := currentUser(c)
	var req api.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	item, err := h.deps.Cart.UpdateQuantity(c.Request.Context(), u.ID, c.Param("id"), req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toAPICartItem(*item))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	u, _ := currentUser(c)
	if err := h.deps.Cart.Remove(c.Request.Context(), u.ID, c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Item removed from cart"})
}
