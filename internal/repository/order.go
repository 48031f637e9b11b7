package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *logging.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, logger: logger}
}

// CreateWithLines persists the order with its snapshot lines and clears the
// source cart. All three writes are one transaction: a failure anywhere
// leaves neither a partial order nor a cleared cart.
func (r *PostgresOrderRepository) CreateWithLines(ctx context.Context, order *models.Order, clearCartIdentity string) (*models.Order, error) {
	if order.ID == "" {
		order.ID = GenerateOrderID()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, placed_at, total_cents, currency,
		                    shipping_address, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		order.ID,
		order.UserID,
		order.PlacedAt,
		order.Total.Amount,
		order.Total.Currency,
		order.ShippingAddress,
		order.PaymentMethod,
		order.Status,
	)
	if err != nil {
		r.logger.Error("Failed to insert order", logging.Fields{
			"order_id": order.ID,
			"user_id":  order.UserID,
			"error":    err.Error(),
		})
		return nil, err
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_cents, currency)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`,
			line.OrderID,
			line.ProductID,
			line.Quantity,
			line.UnitPrice.Amount,
			line.UnitPrice.Currency,
		).Scan(&line.ID)
		if err != nil {
			return nil, err
		}
	}

	if clearCartIdentity != "" {
		if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, clearCartIdentity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	r.logger.Info("Order created", logging.Fields{
		"order_id":   order.ID,
		"user_id":    order.UserID,
		"line_count": len(order.Lines),
		"total":      order.Total.String(),
	})

	return order, nil
}

// GetByID retrieves an order with its lines.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, placed_at, total_cents, currency,
		       shipping_address, payment_method, status
		FROM orders
		WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price_cents, currency
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.UnitPrice.Amount,
			&line.UnitPrice.Currency,
		)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	return order, rows.Err()
}

// GetByUserID retrieves a user's orders, newest first, without lines.
func (r *PostgresOrderRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, placed_at, total_cents, currency,
		       shipping_address, payment_method, status
		FROM orders
		WHERE user_id = $1
		ORDER BY placed_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// List retrieves all orders for the admin view, newest first.
func (r *PostgresOrderRepository) List(ctx context.Context, limit, offset int) ([]*models.Order, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, placed_at, total_cents, currency,
		       shipping_address, payment_method, status
		FROM orders
		ORDER BY placed_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}

	return orders, total, rows.Err()
}

// UpdateStatus overwrites the order's status. No transition validation:
// any known status value is accepted over any current one.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return nil, err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, apperrors.ErrNotFound
	}

	r.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})

	return r.GetByID(ctx, id)
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.PlacedAt,
		&order.Total.Amount,
		&order.Total.Currency,
		&order.ShippingAddress,
		&order.PaymentMethod,
		&order.Status,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GenerateOrderID produces an order id with the service's prefix.
func GenerateOrderID() string {
	return "ord_" + uuid.NewString()
}
