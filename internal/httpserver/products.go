package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParams reads limit and skip. Missing values are 0 and get the
// service defaults.
func pageParams(c *gin.Context) (limit, skip int, ok bool) {
	var err error
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return 0, 0, false
		}
	}
	if v := c.Query("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid skip"})
			return 0, 0, false
		}
	}
	return limit, skip, true
}

func (h *handler) listProducts(c *gin.Context) {
	limit, skip, ok := pageParams(c)
	if !ok {
		return
	}
	page, err := h.deps.ProductSvc.List(c.Request.Context(), limit, skip)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handler) featuredProducts(c *gin.Context) {
	limit, _, ok := pageParams(c)
	if !ok {
		return
	}
	products, err := h.deps.ProductSvc.Featured(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *handler) searchProducts(c *gin.Context) {
	limit, skip, ok := pageParams(c)
	if !ok {
		return
	}
	page, err := h.deps.ProductSvc.Search(c.Request.Context(), c.Query("q"), limit, skip)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handler) getProduct(c *gin.Context) {
	// Non-numeric ids behave like a missing product.
	id, _ := strconv.Atoi(c.Param("id"))
	product, err := h.deps.ProductSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handler) listCategories(c *gin.Context) {
	slugs, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": slugs})
}

func (h *handler) categoryProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.ByCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
