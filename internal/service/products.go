package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/commerce-backoffice/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProductService предоставляет операции каталога товаров
type ProductService struct {
	productRepo domain.ProductRepository
}

// NewProductService создает новый ProductService
func NewProductService(productRepo domain.ProductRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
	}
}

func validateProduct(p *domain.Product) error {
	if p.Name == "" {
		return domain.NewValidationError("name", "name is required")
	}
	if p.UnitPrice.IsNegative() {
		return domain.NewValidationError("unitPrice", "unit price must not be negative")
	}
	if p.Stock < 0 {
		return domain.NewValidationError("stock", "stock must not be negative")
	}
	return nil
}

// Create создает товар
func (s *ProductService) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	created, err := s.productRepo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("product service: failed to create product: %w", err)
	}

	return created, nil
}

// Update обновляет товар
func (s *ProductService) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	updated, err := s.productRepo.Update(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("product service: failed to update product %d: %w", p.ID, err)
	}

	return updated, nil
}

// Delete помечает товар удаленным
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("product service: failed to delete product %d: %w", id, err)
	}
	return nil
}

// Restore снимает пометку удаления с товара
func (s *ProductService) Restore(ctx context.Context, id int64) error {
	if err := s.productRepo.Restore(ctx, id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("product service: failed to restore product %d: %w", id, err)
	}
	return nil
}

// List получает все товары
func (s *ProductService) List(ctx context.Context, includeDeleted bool) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("product service: failed to list products: %w", err)
	}
	return products, nil
}

// Page получает страницу товаров, нормализуя параметры выборки
func (s *ProductService) Page(ctx context.Context, q domain.PageQuery) (*domain.ProductPage, error) {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = defaultPageSize
	}
	if q.Size > maxPageSize {
		q.Size = maxPageSize
	}
	if q.SortDir != "desc" {
		q.SortDir = "asc"
	}

	page, err := s.productRepo.Page(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("product service: failed to get product page: %w", err)
	}

	return page, nil
}
