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

// SaleItemInput is one requested line of a new sale
type SaleItemInput struct {
	ProductID uint `json:"produto_id"`
	Quantity  int  `json:"quantidade"`
}

// SaleRow is a sale listing entry joined with the customer name
type SaleRow struct {
	ID           uint      `json:"id"`
	CustomerID   uint      `json:"cliente_id" gorm:"column:cliente_id"`
	UserID       uint      `json:"usuario_id" gorm:"column:usuario_id"`
	Total        float64   `json:"total"`
	CreatedAt    time.Time `json:"data_venda" gorm:"column:data_venda"`
	CustomerName string    `json:"cliente_nome" gorm:"column:cliente_nome"`
}

// SaleService executes the multi-item sale transaction. Create and Delete
// are the only multi-statement sequences in the application; both run inside
// a single database transaction and roll back completely on any failure.
type SaleService struct {
	db *gorm.DB
}

// NewSaleService creates a SaleService backed by the shared database handle
func NewSaleService(db *gorm.DB) *SaleService {
	return &SaleService{db: db}
}

// Create atomically executes a multi-item sale for the given user: it
// validates stock, snapshots each product's current price into the line item,
// accumulates the total and decrements stock. The stock decrement is guarded
// (`estoque >= quantidade` in the WHERE clause), so two concurrent sales can
// never jointly drive stock below zero — the loser of the race rolls back
// with ErrInsufficientStock.
func (s *SaleService) Create(ctx context.Context, userID, customerID uint, items []SaleItemInput) (*model.Sale, error) {
	if customerID == 0 {
		return nil, apperror.Validation("cliente_id is required")
	}
	if len(items) == 0 {
		return nil, apperror.Validation("at least one item is required")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperror.Validation("quantidade must be greater than zero")
		}
	}

	defer metrics.TrackDBOperation("transaction")(time.Now())

	var sale model.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer model.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("customer", customerID)
			}
			return err
		}

		// First pass: check stock and accumulate the total from current prices
		var total float64
		lineItems := make([]model.SaleItem, 0, len(items))
		for _, item := range items {
			var product model.Product
			if err := tx.First(&product, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					metrics.RecordSaleError("product_not_found")
					return apperror.NotFound("product", item.ProductID)
				}
				return err
			}
			if product.Stock < item.Quantity {
				metrics.RecordSaleError("insufficient_stock")
				return apperror.InsufficientStock(item.ProductID)
			}

			subtotal := product.Price * float64(item.Quantity)
			total += subtotal
			lineItems = append(lineItems, model.SaleItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
				Subtotal:  subtotal,
			})
		}

		sale = model.Sale{
			CustomerID: customerID,
			UserID:     userID,
			Total:      total,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		// Second pass: persist line items and decrement stock
		for i := range lineItems {
			lineItems[i].SaleID = sale.ID
			if err := tx.Create(&lineItems[i]).Error; err != nil {
				return err
			}

			result := tx.Model(&model.Product{}).
				Where("id = ? AND estoque >= ?", lineItems[i].ProductID, lineItems[i].Quantity).
				UpdateColumn("estoque", gorm.Expr("estoque - ?", lineItems[i].Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// A concurrent sale consumed the stock between the check and
				// the decrement
				metrics.RecordSaleError("insufficient_stock")
				return apperror.InsufficientStock(lineItems[i].ProductID)
			}
		}

		sale.Items = lineItems
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		metrics.RecordSaleError("db_error")
		return nil, apperror.Internal(err)
	}

	metrics.SaleCreatedCounter.Inc()
	return &sale, nil
}

// Delete removes a sale owned by the given user and restores stock for the
// products listed in restockIDs only; omitted products stay decremented.
// The caller decides per product because returned goods are not always
// resellable. A sale owned by someone else reports not-found rather than
// forbidden so existence does not leak across users.
func (s *SaleService) Delete(ctx context.Context, userID, saleID uint, restockIDs []uint) error {
	restock := make(map[uint]bool, len(restockIDs))
	for _, id := range restockIDs {
		restock[id] = true
	}

	defer metrics.TrackDBOperation("transaction")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale model.Sale
		result := tx.Where("id = ? AND usuario_id = ?", saleID, userID).First(&sale)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return apperror.NotFound("sale", saleID)
			}
			return result.Error
		}

		var items []model.SaleItem
		if err := tx.Where("venda_id = ?", saleID).Find(&items).Error; err != nil {
			return err
		}

		// Restore stock only for the products the caller selected
		for _, item := range items {
			if !restock[item.ProductID] {
				continue
			}
			err := tx.Model(&model.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("estoque", gorm.Expr("estoque + ?", item.Quantity)).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Where("venda_id = ?", saleID).Delete(&model.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sale).Error
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		metrics.RecordSaleError("db_error")
		return apperror.Internal(err)
	}

	metrics.SaleDeletedCounter.Inc()
	return nil
}

// List returns one page of the user's sales, newest first, joined with the
// customer name.
func (s *SaleService) List(ctx context.Context, userID uint, page int) ([]SaleRow, int64, error) {
	return s.list(ctx, userID, page, nil, nil)
}

// ListByPeriod returns one page of the user's sales inside the inclusive
// [from, to] range on the sale timestamp, newest first.
func (s *SaleService) ListByPeriod(ctx context.Context, userID uint, from, to time.Time, page int) ([]SaleRow, int64, error) {
	return s.list(ctx, userID, page, &from, &to)
}

func (s *SaleService) list(ctx context.Context, userID uint, page int, from, to *time.Time) ([]SaleRow, int64, error) {
	defer metrics.TrackDBOperation("query")(time.Now())

	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&model.Sale{}).Where("vendas.usuario_id = ?", userID)
		if from != nil && to != nil {
			query = query.Where("vendas.data_venda BETWEEN ? AND ?", *from, *to)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal(err)
	}

	var rows []SaleRow
	err := scoped().
		Select("vendas.id, vendas.cliente_id, vendas.usuario_id, vendas.total, vendas.data_venda, clientes.nome AS cliente_nome").
		Joins("JOIN clientes ON clientes.id = vendas.cliente_id").
		Order("vendas.data_venda DESC").
		Limit(PageSize).
		Offset(offsetFor(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	return rows, total, nil
}
