package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/shulehub/shule/core/product"
)

type productRepository struct {
	db *productTable
}

var _ product.Repository = (*productRepository)(nil) // interface compliance check

func NewProductRepository(db *DB) product.Repository {
	return &productRepository{db: db.product}
}

func (repo *productRepository) QueryActiveProducts(ctx context.Context, category product.Category) ([]product.Product, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	prds := make([]product.Product, 0, len(repo.db.table))
	for _, prd := range repo.db.table {
		if !prd.IsActive {
			continue
		}
		if category != "" && prd.Category != category {
			continue
		}
		prds = append(prds, *prd)
	}
	sort.Slice(prds, func(i, j int) bool { return prds[i].CreatedAt.After(prds[j].CreatedAt) })
	return prds, nil
}

func (repo *productRepository) GetProductByID(ctx context.Context, id string) (product.Product, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prd, ok := repo.db.table[id]; ok {
		return *prd, nil
	}
	return product.Product{}, product.ErrNotFound
}

func (repo *productRepository) CreateProduct(ctx context.Context, prd product.Product) (product.Product, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prd.ID = uuid.New().String()
	repo.db.table[prd.ID] = &prd
	return prd, nil
}

func (repo *productRepository) UpdateProduct(ctx context.Context, prd product.Product) (product.Product, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prd.ID]; !ok {
		return product.Product{}, product.ErrNotFound
	}
	repo.db.table[prd.ID] = &prd
	return prd, nil
}
