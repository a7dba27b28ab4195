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

// CustomerService implements customer CRUD with the dependent-sales guard
type CustomerService struct {
	db *gorm.DB
}

// NewCustomerService creates a CustomerService backed by the shared database handle
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// List returns one page of customers ordered by name, optionally filtered by
// a substring match on name or phone.
func (s *CustomerService) List(ctx context.Context, page int, search string) ([]model.Customer, int64, error) {
	defer metrics.TrackDBOperation("query")(time.Now())

	query := s.db.WithContext(ctx).Model(&model.Customer{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("nome LIKE ? OR telefone LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal(err)
	}

	var customers []model.Customer
	if err := query.Order("nome").Limit(PageSize).Offset(offsetFor(page)).Find(&customers).Error; err != nil {
		return nil, 0, apperror.Internal(err)
	}

	return customers, total, nil
}

// Get returns a customer by id
func (s *CustomerService) Get(ctx context.Context, id uint) (*model.Customer, error) {
	defer metrics.TrackDBOperation("query")(time.Now())

	var customer model.Customer
	result := s.db.WithContext(ctx).First(&customer, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("customer", id)
		}
		return nil, apperror.Internal(result.Error)
	}
	return &customer, nil
}

// Create inserts a new customer. Name and phone are both required.
func (s *CustomerService) Create(ctx context.Context, name, phone string) (*model.Customer, error) {
	if name == "" || phone == "" {
		return nil, apperror.Validation("nome and telefone are required")
	}

	defer metrics.TrackDBOperation("insert")(time.Now())
	customer := model.Customer{Name: name, Phone: phone}
	if err := s.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	return &customer, nil
}

// Update rewrites a customer's name and phone. Customers referenced by at
// least one sale are immutable.
func (s *CustomerService) Update(ctx context.Context, id uint, name, phone string) error {
	if name == "" || phone == "" {
		return apperror.Validation("nome and telefone are required")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guardDependentSales(ctx, id, "cannot update customer with associated sales"); err != nil {
		return err
	}

	defer metrics.TrackDBOperation("update")(time.Now())
	err := s.db.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", id).
		Updates(map[string]interface{}{"nome": name, "telefone": phone}).Error
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Delete removes a customer. Customers referenced by at least one sale
// cannot be removed.
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guardDependentSales(ctx, id, "cannot delete customer with associated sales"); err != nil {
		return err
	}

	defer metrics.TrackDBOperation("delete")(time.Now())
	if err := s.db.WithContext(ctx).Delete(&model.Customer{}, id).Error; err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Search returns up to 10 customers whose name contains the given fragment,
// for autocomplete fields.
func (s *CustomerService) Search(ctx context.Context, name string) ([]model.Customer, error) {
	defer metrics.TrackDBOperation("query")(time.Now())

	var customers []model.Customer
	err := s.db.WithContext(ctx).
		Select("id", "nome", "telefone").
		Where("nome LIKE ?", "%"+name+"%").
		Limit(10).
		Find(&customers).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return customers, nil
}

func (s *CustomerService) guardDependentSales(ctx context.Context, id uint, message string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Sale{}).Where("cliente_id = ?", id).Count(&count).Error
	if err != nil {
		return apperror.Internal(err)
	}
	if count > 0 {
		return apperror.Conflict(message)
	}
	return nil
}
