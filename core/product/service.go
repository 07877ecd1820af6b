package product

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("product not found")

type (
	Repository interface {
		// QueryActiveProducts returns active products, optionally narrowed to
		// a category.
		QueryActiveProducts(ctx context.Context, category Category) ([]Product, error)
		GetProductByID(ctx context.Context, id string) (Product, error)
		CreateProduct(ctx context.Context, prd Product) (Product, error)
		UpdateProduct(ctx context.Context, prd Product) (Product, error)
	}

	Service interface {
		QueryActive(ctx context.Context, category Category) ([]Product, error)
		GetByID(ctx context.Context, id string) (Product, error)
		Create(ctx context.Context, np NewProduct) (Product, error)
		Update(ctx context.Context, id string, up UpdateProduct) (Product, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) QueryActive(ctx context.Context, category Category) ([]Product, error) {
	return svc.repo.QueryActiveProducts(ctx, category)
}

func (svc *service) GetByID(ctx context.Context, id string) (Product, error) {
	return svc.repo.GetProductByID(ctx, id)
}

func (svc *service) Create(ctx context.Context, np NewProduct) (Product, error) {
	now := time.Now().UTC()
	return svc.repo.CreateProduct(ctx, Product{
		Name:        np.Name,
		Description: np.Description,
		Price:       np.Price,
		Company:     np.Company,
		Stock:       np.Stock,
		Category:    np.Category,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) Update(ctx context.Context, id string, up UpdateProduct) (Product, error) {
	prd, err := svc.repo.GetProductByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if up.Name != "" {
		prd.Name = up.Name
	}
	if up.Description != "" {
		prd.Description = up.Description
	}
	if up.Price != "" {
		prd.Price = up.Price
	}
	if up.Company != "" {
		prd.Company = up.Company
	}
	if up.Stock != nil {
		prd.Stock = *up.Stock
	}
	if up.Category != "" {
		prd.Category = up.Category
	}
	if up.IsActive != nil {
		prd.IsActive = *up.IsActive
	}
	prd.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProduct(ctx, prd)
}
