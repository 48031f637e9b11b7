package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// PostgresCartRepository implements CartRepository using PostgreSQL.
type PostgresCartRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresCartRepository creates a new PostgreSQL cart repository.
func NewPostgresCartRepository(db *sql.DB, logger *logging.Logger) *PostgresCartRepository {
	return &PostgresCartRepository{db: db, logger: logger}
}

// GetLines returns all lines for a cart identity with product data attached,
// in insertion order.
func (r *PostgresCartRepository) GetLines(ctx context.Context, cartIdentity string) ([]*models.CartLine, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at,
		       p.id, p.name, p.description, p.price_cents, p.currency, p.image_url,
		       p.category_id, p.stock, p.available, p.version, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`

	rows, err := r.db.QueryContext(ctx, query, cartIdentity)
	if err != nil {
		r.logger.Error("Failed to fetch cart lines", logging.Fields{
			"cart_id": cartIdentity,
			"error":   err.Error(),
		})
		return nil, err
	}
	defer rows.Close()

	lines := make([]*models.CartLine, 0)
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// GetLine returns one line if it belongs to the cart identity.
func (r *PostgresCartRepository) GetLine(ctx context.Context, cartIdentity string, lineID int64) (*models.CartLine, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at,
		       p.id, p.name, p.description, p.price_cents, p.currency, p.image_url,
		       p.category_id, p.stock, p.available, p.version, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1 AND ci.cart_id = $2
	`

	line, err := scanCartLine(r.db.QueryRowContext(ctx, query, lineID, cartIdentity))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}

	return line, nil
}

// AddLine inserts a line, or increments the quantity of the existing line
// for the same (cart identity, product). The unique index on
// (cart_id, product_id) makes duplicates impossible.
func (r *PostgresCartRepository) AddLine(ctx context.Context, cartIdentity string, productID int64, quantity int) (*models.CartLine, error) {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, cart_id, product_id, quantity, created_at
	`

	var line models.CartLine
	err := r.db.QueryRowContext(ctx, query, cartIdentity, productID, quantity, time.Now()).Scan(
		&line.ID,
		&line.CartIdentity,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to add cart line", logging.Fields{
			"cart_id":    cartIdentity,
			"product_id": productID,
			"error":      err.Error(),
		})
		return nil, err
	}

	return &line, nil
}

// UpdateLineQuantity sets a line's quantity. The caller is expected to have
// resolved the line via GetLine; a vanished row surfaces as ErrLineNotFound.
func (r *PostgresCartRepository) UpdateLineQuantity(ctx context.Context, cartIdentity string, lineID int64, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $1 AND cart_id = $2`,
		lineID, cartIdentity, quantity,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.ErrLineNotFound
	}
	return nil
}

// DeleteLine removes a line owned by the identity. Absent lines are a no-op.
func (r *PostgresCartRepository) DeleteLine(ctx context.Context, cartIdentity string, lineID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`,
		lineID, cartIdentity,
	)
	return err
}

// Clear deletes all lines owned by the identity.
func (r *PostgresCartRepository) Clear(ctx context.Context, cartIdentity string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartIdentity)
	if err != nil {
		r.logger.Error("Failed to clear cart", logging.Fields{
			"cart_id": cartIdentity,
			"error":   err.Error(),
		})
	}
	return err
}

// Merge folds fromIdentity's lines into toIdentity in one transaction:
// shared products combine quantities, the rest move over, and the source
// cart ends up empty.
func (r *PostgresCartRepository) Merge(ctx context.Context, fromIdentity, toIdentity string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE cart_items dst
		SET quantity = dst.quantity + src.quantity
		FROM cart_items src
		WHERE dst.cart_id = $2 AND src.cart_id = $1
		  AND dst.product_id = src.product_id
	`, fromIdentity, toIdentity)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE cart_items
		SET cart_id = $2
		WHERE cart_id = $1
		  AND product_id NOT IN (SELECT product_id FROM cart_items WHERE cart_id = $2)
	`, fromIdentity, toIdentity)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, fromIdentity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Info("Cart merged", logging.Fields{
		"from_cart": fromIdentity,
		"to_cart":   toIdentity,
	})
	return nil
}

func scanCartLine(row rowScanner) (*models.CartLine, error) {
	var line models.CartLine
	var product models.Product

	err := row.Scan(
		&line.ID,
		&line.CartIdentity,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price.Amount,
		&product.Price.Currency,
		&product.ImageURL,
		&product.CategoryID,
		&product.Stock,
		&product.Available,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	line.Product = &product
	return &line, nil
}
