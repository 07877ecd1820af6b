package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/product"
)

const productColumns = `id, name, description, price, company, stock, category, image_path, is_active, created_at, updated_at`

type productRepository struct {
	db *sqlx.DB
}

var _ product.Repository = (*productRepository)(nil) // interface compliance check

func NewProductRepository(db *sqlx.DB) *productRepository {
	return &productRepository{db: db}
}

func (repo productRepository) QueryActiveProducts(ctx context.Context, category product.Category) ([]product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active`
	args := []interface{}{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	var prds []product.Product
	if err := repo.db.SelectContext(ctx, &prds, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying products")
	}
	return prds, nil
}

func (repo productRepository) GetProductByID(ctx context.Context, id string) (product.Product, error) {
	var prd product.Product
	if err := repo.db.GetContext(ctx, &prd, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		return product.Product{}, trapNoRowsErr(err, product.ErrNotFound, "getting product")
	}
	return prd, nil
}

func (repo productRepository) CreateProduct(ctx context.Context, prd product.Product) (product.Product, error) {
	prd.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO products (id, name, description, price, company, stock, category, image_path, is_active, created_at, updated_at)
		VALUES (:id, :name, :description, :price, :company, :stock, :category, :image_path, :is_active, :created_at, :updated_at)
	`, prd)
	if err != nil {
		return product.Product{}, errors.Wrap(err, "inserting product")
	}
	return prd, nil
}

func (repo productRepository) UpdateProduct(ctx context.Context, prd product.Product) (product.Product, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE products
		SET name = :name, description = :description, price = :price, company = :company,
		    stock = :stock, category = :category, image_path = :image_path,
		    is_active = :is_active, updated_at = :updated_at
		WHERE id = :id
	`, prd)
	if err != nil {
		return product.Product{}, errors.Wrap(err, "updating product")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return product.Product{}, product.ErrNotFound
	}
	return prd, nil
}
