package httpserver

import (
	"net/http"
	"strconv"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ID        string          `json:"id"`
	ProductID int             `json:"productId" binding:"required,gt=0"`
	Title     string          `json:"title"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func (h *handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.CartSvc.Snapshot())
}

func (h *handler) cartSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.CartSvc.Summary())
}

func (h *handler) replaceCart(c *gin.Context) {
	var req domain.Cart
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	for _, item := range req.Items {
		if item.Quantity < 1 || item.Price.IsNegative() {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "every item needs quantity >= 1 and price >= 0"})
			return
		}
	}
	c.JSON(http.StatusOK, h.deps.CartSvc.Replace(c.Request.Context(), req))
}

func (h *handler) clearCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.CartSvc.Clear(c.Request.Context()))
}

func (h *handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: map[string]string{"price": "must be at least 0"}})
		return
	}
	name := req.Name
	if name == "" {
		name = req.Title
	}
	cart := h.deps.CartSvc.Add(c.Request.Context(), domain.LineItem{
		ID:        req.ID,
		ProductID: req.ProductID,
		Title:     req.Title,
		Name:      name,
		Image:     req.Image,
		Price:     req.Price,
		Quantity:  req.Quantity,
	})
	c.JSON(http.StatusOK, cart)
}

func (h *handler) setCartItemQuantity(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.deps.CartSvc.SetQuantity(c.Request.Context(), productID, req.Quantity))
}

func (h *handler) removeCartItem(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.deps.CartSvc.Remove(c.Request.Context(), productID))
}

func productIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return 0, false
	}
	return id, true
}
