package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tobiasmaugus/vendas-api/internal/logger"
	"github.com/tobiasmaugus/vendas-api/internal/service"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name        string  `json:"nome"`
	Description string  `json:"descricao"`
	Price       float64 `json:"preco"`
	Stock       int     `json:"estoque"`
}

// StockRequest carries the stock delta for PATCH /api/produtos/:id/estoque.
// The pointer distinguishes "missing" from an explicit zero.
type StockRequest struct {
	Quantity *int `json:"quantidade"`
}

// ProductHandler exposes the product CRUD, stock and statistics endpoints
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List handles GET /api/produtos with pagination and substring search
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	search := c.QueryParam("search")

	products, total, err := h.products.List(c.Request().Context(), page, search)
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"produtos":   products,
		"total":      total,
		"page":       page,
		"totalPages": service.TotalPages(total),
	})
}

// Get handles GET /api/produtos/:id
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Create handles POST /api/produtos
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	product, err := h.products.Create(c.Request().Context(), req.Name, req.Description, req.Price, req.Stock)
	if err != nil {
		log.Warn("Failed to create product", zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Float64("price", product.Price))
	return c.JSON(http.StatusCreated, echo.Map{
		"id":      product.ID,
		"message": "product created successfully",
	})
}

// Update handles PUT /api/produtos/:id
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if err := h.products.Update(c.Request().Context(), id, req.Name, req.Description, req.Price, req.Stock); err != nil {
		log.Warn("Failed to update product", zap.Uint("product_id", id), zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("Product updated", zap.Uint("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "product updated successfully"})
}

// Delete handles DELETE /api/produtos/:id
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		log.Warn("Failed to delete product", zap.Uint("product_id", id), zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("Product deleted", zap.Uint("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted successfully"})
}

// Search handles GET /api/produtos/buscar/:nome (autocomplete over in-stock
// products, top 10)
func (h *ProductHandler) Search(c echo.Context) error {
	products, err := h.products.Search(c.Request().Context(), c.Param("nome"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// AdjustStock handles PATCH /api/produtos/:id/estoque
func (h *ProductHandler) AdjustStock(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req StockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantidade is required"})
	}

	if err := h.products.AdjustStock(c.Request().Context(), id, *req.Quantity); err != nil {
		log.Warn("Failed to adjust stock",
			zap.Uint("product_id", id),
			zap.Int("delta", *req.Quantity),
			zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("Stock adjusted",
		zap.Uint("product_id", id),
		zap.Int("delta", *req.Quantity))
	return c.JSON(http.StatusOK, echo.Map{"message": "stock updated successfully"})
}

// Stats handles GET /api/produtos/estatisticas/geral
func (h *ProductHandler) Stats(c echo.Context) error {
	stats, err := h.products.Stats(c.Request().Context())
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
