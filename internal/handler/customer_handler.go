package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tobiasmaugus/vendas-api/internal/logger"
	"github.com/tobiasmaugus/vendas-api/internal/service"
)

// CustomerRequest defines the structure for customer creation/update requests
type CustomerRequest struct {
	Name  string `json:"nome"`
	Phone string `json:"telefone"`
}

// CustomerHandler exposes the customer CRUD endpoints
type CustomerHandler struct {
	customers *service.CustomerService
}

// NewCustomerHandler creates a CustomerHandler
func NewCustomerHandler(customers *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// List handles GET /api/clientes with pagination and substring search
func (h *CustomerHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	search := c.QueryParam("search")

	customers, total, err := h.customers.List(c.Request().Context(), page, search)
	if err != nil {
		log.Error("Failed to list customers", zap.Error(err))
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"clientes":   customers,
		"total":      total,
		"page":       page,
		"totalPages": service.TotalPages(total),
	})
}

// Get handles GET /api/clientes/:id
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	customer, err := h.customers.Get(c.Request().Context(), id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

// Create handles POST /api/clientes
func (h *CustomerHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	customer, err := h.customers.Create(c.Request().Context(), req.Name, req.Phone)
	if err != nil {
		log.Warn("Failed to create customer", zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("Customer created",
		zap.Uint("customer_id", customer.ID),
		zap.String("name", customer.Name))
	return c.JSON(http.StatusCreated, echo.Map{
		"id":      customer.ID,
		"message": "customer created successfully",
	})
}

// Update handles PUT /api/clientes/:id
func (h *CustomerHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if err := h.customers.Update(c.Request().Context(), id, req.Name, req.Phone); err != nil {
		log.Warn("Failed to update customer", zap.Uint("customer_id", id), zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("Customer updated", zap.Uint("customer_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "customer updated successfully"})
}

// Delete handles DELETE /api/clientes/:id
func (h *CustomerHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := h.customers.Delete(c.Request().Context(), id); err != nil {
		log.Warn("Failed to delete customer", zap.Uint("customer_id", id), zap.Error(err))
		return jsonError(c, err)
	}

	log.Info("Customer deleted", zap.Uint("customer_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "customer deleted successfully"})
}

// Search handles GET /api/clientes/buscar/:nome (autocomplete, top 10)
func (h *CustomerHandler) Search(c echo.Context) error {
	customers, err := h.customers.Search(c.Request().Context(), c.Param("nome"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, customers)
}

// parseID reads the :id route parameter
func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
