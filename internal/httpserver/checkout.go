package httpserver

import (
	"net/http"

	"storefront/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

func (h *handler) placeOrder(c *gin.Context) {
	var in checkout.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.deps.CheckoutSvc.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handler) listOrders(c *gin.Context) {
	orders, err := h.deps.CheckoutSvc.Orders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
