package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coffeeshop-backend/internal/model"
)

// OrderRepo provides database operations for orders and their line items.
type OrderRepo struct {
	DB *sql.DB
}

// NewOrderRepo returns a repo bound to db.
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{DB: db}
}

// OrderItemInput is one requested product line for OrderRepo.Create.
type OrderItemInput struct {
	ProductID int64
	Quantity  int
}

// Create places an order for userID. Unit prices are read from the catalog
// inside the same transaction, so a concurrent price change cannot split an
// order across two price points. A missing product maps to ErrProductNotFound.
func (r *OrderRepo) Create(ctx context.Context, userID int64, items []OrderItemInput) (*model.Order, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	lines := make([]model.OrderItem, 0, len(items))
	total := 0.0
	for _, item := range items {
		var price float64
		err := tx.QueryRowContext(ctx,
			`SELECT price FROM products WHERE id = $1`, item.ProductID,
		).Scan(&price)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("price lookup: %w", err)
		}
		lines = append(lines, model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
		total += price * float64(item.Quantity)
	}

	var order model.Order
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, status, total)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, status, total, created_at`,
		userID, model.OrderStatusPending, total,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range lines {
		lines[i].OrderID = order.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			order.ID, lines[i].ProductID, lines[i].Quantity, lines[i].UnitPrice,
		).Scan(&lines[i].ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	order.Items = lines
	return &order, nil
}

// GetByID returns the order with its items, or (nil, nil) when absent.
func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, status, total, created_at FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns all orders with items, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]model.Order, error) {
	return r.listByQuery(ctx,
		`SELECT id, user_id, status, total, created_at FROM orders ORDER BY id DESC`)
}

// ListByUser returns the given user's orders with items, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.listByQuery(ctx,
		`SELECT id, user_id, status, total, created_at FROM orders WHERE user_id = $1 ORDER BY id DESC`,
		userID)
}

// UpdateStatus sets the order status. A missing order maps to ErrOrderNotFound.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	var order model.Order
	err := r.DB.QueryRowContext(ctx, `
		UPDATE orders SET status = $2 WHERE id = $1
		RETURNING id, user_id, status, total, created_at`,
		id, status,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete removes the order and, via cascade, its items.
func (r *OrderRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) listByQuery(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, order *model.Order) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		order.ID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}
