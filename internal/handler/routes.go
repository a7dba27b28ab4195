package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tobiasmaugus/vendas-api/internal/metrics"
)

// Handlers bundles every HTTP handler of the application
type Handlers struct {
	Auth      *AuthHandler
	Customers *CustomerHandler
	Products  *ProductHandler
	Sales     *SaleHandler
	Health    *HealthHandler
}

// Register wires all routes onto the Echo instance. requireAuth guards every
// resource route; the auth and ops endpoints stay public.
func Register(e *echo.Echo, h *Handlers, requireAuth echo.MiddlewareFunc) {
	// Ops endpoints
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	e.GET("/health", h.Health.Check)

	// Auth routes (public)
	authAPI := e.Group("/api/auth")
	authAPI.POST("/google", h.Auth.Google)
	authAPI.POST("/verify", h.Auth.Verify)
	authAPI.POST("/logout", h.Auth.Logout)

	// Customer API routes
	customerAPI := e.Group("/api/clientes", requireAuth)
	customerAPI.GET("", h.Customers.List)
	customerAPI.GET("/:id", h.Customers.Get)
	customerAPI.POST("", h.Customers.Create)
	customerAPI.PUT("/:id", h.Customers.Update)
	customerAPI.DELETE("/:id", h.Customers.Delete)
	customerAPI.GET("/buscar/:nome", h.Customers.Search)

	// Product API routes. The static segments are registered before /:id so
	// echo does not swallow them as ids.
	productAPI := e.Group("/api/produtos", requireAuth)
	productAPI.GET("", h.Products.List)
	productAPI.GET("/estatisticas/geral", h.Products.Stats)
	productAPI.GET("/buscar/:nome", h.Products.Search)
	productAPI.GET("/:id", h.Products.Get)
	productAPI.POST("", h.Products.Create)
	productAPI.PUT("/:id", h.Products.Update)
	productAPI.DELETE("/:id", h.Products.Delete)
	productAPI.PATCH("/:id/estoque", h.Products.AdjustStock)

	// Sale API routes
	saleAPI := e.Group("/api/vendas", requireAuth)
	saleAPI.GET("", h.Sales.List)
	saleAPI.GET("/periodo", h.Sales.ListByPeriod)
	saleAPI.POST("", h.Sales.Create)
	saleAPI.DELETE("/:id", h.Sales.Delete)
}
