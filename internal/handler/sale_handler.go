package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tobiasmaugus/vendas-api/internal/apperror"
	"github.com/tobiasmaugus/vendas-api/internal/logger"
	mw "github.com/tobiasmaugus/vendas-api/internal/middleware"
	"github.com/tobiasmaugus/vendas-api/internal/service"
)

// SaleRequest defines the structure for sale creation requests
type SaleRequest struct {
	CustomerID uint                    `json:"cliente_id"`
	Items      []service.SaleItemInput `json:"itens"`
}

// SaleDeleteRequest carries the shared secret and the restock list for sale
// deletion
type SaleDeleteRequest struct {
	DeletePassword string `json:"deletePassword"`
	RestockIDs     []uint `json:"produtosDevolver"`
}

// SaleHandler exposes the sale transaction endpoints
type SaleHandler struct {
	sales          *service.SaleService
	deletePassword string
}

// NewSaleHandler creates a SaleHandler. deletePassword is the out-of-band
// admin secret required for destructive deletion.
func NewSaleHandler(sales *service.SaleService, deletePassword string) *SaleHandler {
	return &SaleHandler{sales: sales, deletePassword: deletePassword}
}

// List handles GET /api/vendas: the requesting user's sales, newest first
func (h *SaleHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, ok := mw.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access token required"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	sales, total, err := h.sales.List(c.Request().Context(), userID, page)
	if err != nil {
		log.Error("Failed to list sales", zap.Error(err))
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"vendas":     sales,
		"total":      total,
		"page":       page,
		"totalPages": service.TotalPages(total),
	})
}

// ListByPeriod handles GET /api/vendas/periodo?dataInicio=&dataFim=&page=.
// Both bounds are inclusive; a date-only dataFim covers that whole day.
func (h *SaleHandler) ListByPeriod(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, ok := mw.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access token required"})
	}

	from, err := parseDate(c.QueryParam("dataInicio"), false)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dataInicio is invalid"})
	}
	to, err := parseDate(c.QueryParam("dataFim"), true)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dataFim is invalid"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	sales, total, err := h.sales.ListByPeriod(c.Request().Context(), userID, from, to, page)
	if err != nil {
		log.Error("Failed to list sales by period", zap.Error(err))
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"vendas":     sales,
		"total":      total,
		"page":       page,
		"totalPages": service.TotalPages(total),
	})
}

// Create handles POST /api/vendas: the atomic multi-item sale. Every
// rejection — missing product, oversell, bad payload — comes back as 400
// with the specific reason; nothing is persisted on failure.
func (h *SaleHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, ok := mw.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access token required"})
	}

	var req SaleRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	sale, err := h.sales.Create(c.Request().Context(), userID, req.CustomerID, req.Items)
	if err != nil {
		log.Warn("Sale rejected",
			zap.Uint("user_id", userID),
			zap.Uint("customer_id", req.CustomerID),
			zap.Error(err))
		if errors.Is(err, apperror.ErrInternal) {
			return jsonError(c, err)
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	log.Info("Sale created",
		zap.Uint("sale_id", sale.ID),
		zap.Uint("user_id", userID),
		zap.Float64("total", sale.Total),
		zap.Int("items", len(sale.Items)))
	return c.JSON(http.StatusCreated, echo.Map{
		"id":      sale.ID,
		"message": "sale completed successfully",
	})
}

// Delete handles DELETE /api/vendas/:id. The shared delete secret gates the
// operation; stock is restored only for the products listed in
// produtosDevolver.
func (h *SaleHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, ok := mw.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access token required"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req SaleDeleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if subtle.ConstantTimeCompare([]byte(req.DeletePassword), []byte(h.deletePassword)) != 1 {
		log.Warn("Incorrect delete password", zap.Uint("sale_id", id), zap.Uint("user_id", userID))
		return jsonError(c, apperror.Forbidden("incorrect delete password"))
	}

	if err := h.sales.Delete(c.Request().Context(), userID, id, req.RestockIDs); err != nil {
		log.Warn("Failed to delete sale",
			zap.Uint("sale_id", id),
			zap.Uint("user_id", userID),
			zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("Sale deleted",
		zap.Uint("sale_id", id),
		zap.Uint("user_id", userID),
		zap.Int("restocked_products", len(req.RestockIDs)))
	return c.JSON(http.StatusOK, echo.Map{"message": "sale deleted successfully"})
}

// parseDate accepts either a bare date or a full RFC 3339 timestamp. Bare
// end dates are pushed to the last instant of the day so the range stays
// inclusive.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
