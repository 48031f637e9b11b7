package repository

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID    int64
	AvailableOnly bool
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	// Update applies an admin edit. The request carries the row version the
	// editor loaded; a moved version yields apperrors.ErrConcurrencyConflict.
	Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository persists product categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	Update(ctx context.Context, id int64, req *models.UpdateCategoryRequest) (*models.Category, error)
	// Delete fails with apperrors.ErrCategoryInUse while products reference
	// the category.
	Delete(ctx context.Context, id int64) error
}

// CartRepository persists cart lines keyed by cart identity.
type CartRepository interface {
	// GetLines returns the identity's lines in insertion order with product
	// data attached.
	GetLines(ctx context.Context, cartIdentity string) ([]*models.CartLine, error)
	GetLine(ctx context.Context, cartIdentity string, lineID int64) (*models.CartLine, error)
	// AddLine inserts a line or, when the identity already has the product,
	// increments the existing line's quantity. Never creates duplicates.
	AddLine(ctx context.Context, cartIdentity string, productID int64, quantity int) (*models.CartLine, error)
	UpdateLineQuantity(ctx context.Context, cartIdentity string, lineID int64, quantity int) error
	DeleteLine(ctx context.Context, cartIdentity string, lineID int64) error
	Clear(ctx context.Context, cartIdentity string) error
	// Merge folds the lines of fromIdentity into toIdentity atomically,
	// combining quantities for shared products.
	Merge(ctx context.Context, fromIdentity, toIdentity string) error
}

// OrderRepository persists orders and their snapshot lines.
type OrderRepository interface {
	// CreateWithLines persists the order with its lines and clears the
	// source cart as one transaction. Any failure leaves neither a partial
	// order nor a cleared cart.
	CreateWithLines(ctx context.Context, order *models.Order, clearCartIdentity string) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Order, error)
	List(ctx context.Context, limit, offset int) ([]*models.Order, int, error)
	// UpdateStatus overwrites the status unconditionally; the enumeration is
	// a label, not a guarded state machine.
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

// ProductCache defines read-through caching for products.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
	Set(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
}
