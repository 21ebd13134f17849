package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/types"
)

// ProductHandler serves the shop catalogue. Reads are public, writes need an admin.
type ProductHandler struct {
	productService *service.ProductService
	authService    *service.AuthService
}

func NewProductHandler(products *service.ProductService, auth *service.AuthService) *ProductHandler {
	return &ProductHandler{productService: products, authService: auth}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", middleware.OptionalAuth(h.authService), h.ListProducts)
		products.GET("/:id", middleware.OptionalAuth(h.authService), h.GetProduct)
	}

	admin := products.Group("", middleware.AuthMiddleware(h.authService), middleware.RequireAdmin())
	{
		admin.POST("", h.CreateProduct)
		admin.PUT("/:id", h.UpdateProduct)
		admin.DELETE("/:id", h.DeleteProduct)
		admin.POST("/:id/stock", h.AdjustStock)
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Category:   c.Query("category"),
		Search:     c.Query("q"),
		ActiveOnly: !middleware.IsAdmin(c) || c.Query("active") == "true",
		Limit:      queryInt(c, "limit", 20),
		Offset:     queryInt(c, "offset", 0),
	}
	products, total, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.Product]{Items: products, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !product.Active && !middleware.IsAdmin(c) {
		_ = c.Error(service.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req types.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.productService.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}
