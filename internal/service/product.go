package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/repository"
)

// ProductsPerPage задаёт размер страницы каталога.
const ProductsPerPage = 8

// ProductInput содержит поля товара, которые задаёт администратор.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int
	Images      []model.Image
}

// ProductPatch описывает частичное изменение товара. nil означает «не менять».
// Отзывы и агрегаты через этот путь не меняются.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Stock       *int
	Images      []model.Image
}

// ProductQuery задаёт параметры выборки каталога.
type ProductQuery struct {
	Keyword  string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
}

// ProductPage содержит страницу каталога и общее число товаров.
type ProductPage struct {
	Products     []model.Product
	ProductCount int
	PerPage      int
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, creatorID uuid.UUID, in ProductInput) (*model.Product, error) {
	p := &model.Product{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Stock:       in.Stock,
		Images:      in.Images,
		UserID:      creatorID,
		CreatedAt:   s.now(),
	}
	if p.Images == nil {
		p.Images = []model.Image{}
	}
	if err := model.CheckStockInput(in.Stock); err != nil {
		return nil, mapStoreError(err, "Product not found", "Failed to create product")
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, mapStoreError(err, "Product not found", "Failed to create product")
	}
	return p, nil
}

// GetProduct возвращает товар.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "Product not found", "Failed to load product")
	}
	return p, nil
}

// ListProducts возвращает страницу каталога.
func (s *Service) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page := max(q.Page, 1)

	products, total, err := s.repo.ListProducts(ctx, repository.ProductFilter{
		Keyword:  q.Keyword,
		Category: q.Category,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Limit:    ProductsPerPage,
		Offset:   (page - 1) * ProductsPerPage,
	})
	if err != nil {
		return nil, apperror.Internal("Failed to load products", err)
	}

	if products == nil {
		products = []model.Product{}
	}
	return &ProductPage{Products: products, ProductCount: total, PerPage: ProductsPerPage}, nil
}

// UpdateProduct применяет частичное изменение и сохраняет товар с полной проверкой.
// Отрицательный остаток отклоняется, только если патч меняет stock.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*model.Product, error) {
	return s.mutateProduct(ctx, id, repository.Validated, func(p *model.Product) error {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.Stock != nil {
			if err := model.CheckStockInput(*patch.Stock); err != nil {
				return mapStoreError(err, "Product not found", "Failed to update product")
			}
			p.Stock = *patch.Stock
		}
		if patch.Images != nil {
			p.Images = patch.Images
		}
		return nil
	})
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return apperror.Internal("Failed to delete product", err)
	}
	if n == 0 {
		return apperror.NotFound("Product not found")
	}
	return nil
}
