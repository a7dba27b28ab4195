package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tobiasmaugus/vendas-api/internal/apperror"
	"github.com/tobiasmaugus/vendas-api/internal/metrics"
	"github.com/tobiasmaugus/vendas-api/internal/model"
)

// LowStockThreshold is the stock level under which a product counts as
// low-stock in the aggregate statistics.
const LowStockThreshold = 10

// ProductStats is the aggregate inventory report
type ProductStats struct {
	TotalProducts   int64   `json:"total_produtos"`
	TotalStock      int64   `json:"total_estoque"`
	TotalStockValue float64 `json:"valor_total_estoque"`
	LowStockCount   int64   `json:"produtos_baixo_estoque"`
}

// ProductService implements product CRUD, the guarded stock-adjust operation
// and the inventory statistics query.
type ProductService struct {
	db *gorm.DB
}

// NewProductService creates a ProductService backed by the shared database handle
func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// List returns one page of products ordered by name, optionally filtered by
// a substring match on name or description.
func (s *ProductService) List(ctx context.Context, page int, search string) ([]model.Product, int64, error) {
	defer metrics.TrackDBOperation("query")(time.Now())

	query := s.db.WithContext(ctx).Model(&model.Product{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("nome LIKE ? OR descricao LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal(err)
	}

	var products []model.Product
	if err := query.Order("nome").Limit(PageSize).Offset(offsetFor(page)).Find(&products).Error; err != nil {
		return nil, 0, apperror.Internal(err)
	}

	return products, total, nil
}

// Get returns a product by id
func (s *ProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	defer metrics.TrackDBOperation("query")(time.Now())

	var product model.Product
	result := s.db.WithContext(ctx).First(&product, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product", id)
		}
		return nil, apperror.Internal(result.Error)
	}
	return &product, nil
}

// Create inserts a new product. Name is required, price must be positive and
// the initial stock may not be negative.
func (s *ProductService) Create(ctx context.Context, name, description string, price float64, stock int) (*model.Product, error) {
	if name == "" {
		return nil, apperror.Validation("nome is required")
	}
	if price <= 0 {
		return nil, apperror.Validation("preco must be greater than zero")
	}
	if stock < 0 {
		return nil, apperror.Validation("estoque cannot be negative")
	}

	defer metrics.TrackDBOperation("insert")(time.Now())
	product := model.Product{Name: name, Description: description, Price: price, Stock: stock}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	return &product, nil
}

// Update rewrites a product's catalog fields. Products referenced by at
// least one sale item are immutable; stock corrections for those go through
// AdjustStock.
func (s *ProductService) Update(ctx context.Context, id uint, name, description string, price float64, stock int) error {
	if name == "" {
		return apperror.Validation("nome is required")
	}
	if price <= 0 {
		return apperror.Validation("preco must be greater than zero")
	}
	if stock < 0 {
		return apperror.Validation("estoque cannot be negative")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guardDependentSales(ctx, id, "cannot update product with associated sales"); err != nil {
		return err
	}

	defer metrics.TrackDBOperation("update")(time.Now())
	err := s.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"nome":      name,
			"descricao": description,
			"preco":     price,
			"estoque":   stock,
		}).Error
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Delete removes a product. Products referenced by at least one sale item
// cannot be removed.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guardDependentSales(ctx, id, "cannot delete product with associated sales"); err != nil {
		return err
	}

	defer metrics.TrackDBOperation("delete")(time.Now())
	if err := s.db.WithContext(ctx).Delete(&model.Product{}, id).Error; err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Search returns up to 10 in-stock products whose name contains the given
// fragment, for autocomplete fields in the sale form.
func (s *ProductService) Search(ctx context.Context, name string) ([]model.Product, error) {
	defer metrics.TrackDBOperation("query")(time.Now())

	var products []model.Product
	err := s.db.WithContext(ctx).
		Select("id", "nome", "preco", "estoque").
		Where("nome LIKE ? AND estoque > 0", "%"+name+"%").
		Limit(10).
		Find(&products).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return products, nil
}

// AdjustStock applies a delta to a product's stock. The update is guarded so
// the resulting stock can never go below zero, even under concurrent calls.
func (s *ProductService) AdjustStock(ctx context.Context, id uint, delta int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	defer metrics.TrackDBOperation("update")(time.Now())
	query := s.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("estoque >= ?", -delta)
	}
	result := query.UpdateColumn("estoque", gorm.Expr("estoque + ?", delta))
	if result.Error != nil {
		return apperror.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.Validation("stock cannot go below zero")
	}
	return nil
}

// Stats returns the aggregate inventory statistics
func (s *ProductService) Stats(ctx context.Context) (*ProductStats, error) {
	defer metrics.TrackDBOperation("query")(time.Now())

	var stats ProductStats
	err := s.db.WithContext(ctx).Model(&model.Product{}).
		Select("COUNT(*) AS total_products, COALESCE(SUM(estoque), 0) AS total_stock, COALESCE(SUM(preco * estoque), 0) AS total_stock_value").
		Scan(&stats).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}

	err = s.db.WithContext(ctx).Model(&model.Product{}).
		Where("estoque < ?", LowStockThreshold).
		Count(&stats.LowStockCount).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &stats, nil
}

func (s *ProductService) guardDependentSales(ctx context.Context, id uint, message string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.SaleItem{}).Where("produto_id = ?", id).Count(&count).Error
	if err != nil {
		return apperror.Internal(err)
	}
	if count > 0 {
		return apperror.Conflict(message)
	}
	return nil
}
