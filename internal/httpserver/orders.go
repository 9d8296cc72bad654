package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"univendor/internal/api"
	"univendor/internal/domain"
)

func (h *handlers) placeOrder(c *gin.Context) {
	u, _ := currentUser(c)
	var req api.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	o, err := h.deps.Orders.Place(c.Request.Context(), u.ID, domain.ShippingAddress(req.ShippingAddress))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toAPIOrder(*o))
}

func (h *handlers) listOrders(c *gin.Context) {
	u, _ := currentUser(c)
	orders, err := h.deps.Orders.History(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out := make([]api.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, toAPIOrder(o))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) getOrder(c *gin.Context) {
	u, _ := currentUser(c)
	o, err := h.deps.Orders.Get(c.Request.Context(), *u, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toAPIOrder(*o))
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	u, _ := currentUser(c)
	var req api.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	o, err := h.deps.Orders.UpdateStatus(c.Request.Context(), *u, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toAPIOrder(*o))
}
