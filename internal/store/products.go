package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coffeeshop-backend/internal/model"
)

const productColumns = "id, name, description, price, image_url, stock, created_at"

// ProductRepo provides database operations for the product catalog.
type ProductRepo struct {
	DB *sql.DB
}

// NewProductRepo returns a repo bound to db.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{DB: db}
}

// CreateProductParams are the inputs for ProductRepo.Create.
type CreateProductParams struct {
	Name        string
	Description string
	Price       float64
	ImageURL    string
	Stock       int
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p CreateProductParams) (*model.Product, error) {
	var out model.Product
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO products (name, description, price, image_url, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns,
		p.Name, p.Description, p.Price, p.ImageURL, p.Stock,
	).Scan(&out.ID, &out.Name, &out.Description, &out.Price, &out.ImageURL, &out.Stock, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &out, nil
}

// GetByID returns the product for id, or (nil, nil) when absent.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var out model.Product
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	).Scan(&out.ID, &out.Name, &out.Description, &out.Price, &out.ImageURL, &out.Stock, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &out, nil
}

// List returns the full catalog ordered by id.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProductParams carry the optional fields for ProductRepo.Update.
// Nil fields are left untouched.
type UpdateProductParams struct {
	Name        *string
	Description *string
	Price       *float64
	ImageURL    *string
	Stock       *int
}

// Update applies the non-nil fields and returns the updated product.
// A missing product maps to ErrProductNotFound.
func (r *ProductRepo) Update(ctx context.Context, id int64, p UpdateProductParams) (*model.Product, error) {
	set := make([]string, 0, 5)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.ImageURL != nil {
		add("image_url", *p.ImageURL)
	}
	if p.Stock != nil {
		add("stock", *p.Stock)
	}
	if len(set) == 0 {
		out, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, ErrProductNotFound
		}
		return out, nil
	}

	var out model.Product
	err := r.DB.QueryRowContext(ctx,
		`UPDATE products SET `+strings.Join(set, ", ")+` WHERE id = $1 RETURNING `+productColumns,
		args...,
	).Scan(&out.ID, &out.Name, &out.Description, &out.Price, &out.ImageURL, &out.Stock, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &out, nil
}

// Delete removes the product. A missing product maps to ErrProductNotFound.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
