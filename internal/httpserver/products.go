package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"univendor/internal/api"
)

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Products.List(c.Request.Context(), c.Query("vendor"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out := make([]api.Product, 0, len(products))
	for _, p := range products {
		out = append(out, toAPIProduct(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toAPIProduct(*p))
}
