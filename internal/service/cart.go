package service

import (
	"context"
	"errors"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// CartService performs cart mutations against a resolved cart identity.
// Identity resolution happens at the transport layer; every method here
// takes the identity explicitly.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *logging.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logging.NewLogger("cart-service"),
	}
}

// AddToCart adds a product to the cart. Quantities below 1 are coerced to 1.
// An existing line for the product is incremented, never duplicated.
//
// The product must exist, be flagged available, and have stock on hand.
// Stock is not compared against the requested quantity and is not
// decremented here; that decision is deferred to fulfilment.
func (s *CartService) AddToCart(ctx context.Context, cartIdentity string, productID int64, quantity int) (line *models.CartLine, err error) {
	defer func() { metrics.ObserveCartOperation("add", err) }()

	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrProductUnavailable
	}
	if err != nil {
		return nil, err
	}
	if !product.InStock() {
		return nil, apperrors.ErrProductUnavailable
	}

	line, err = s.carts.AddLine(ctx, cartIdentity, productID, quantity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product added to cart", logging.Fields{
		"cart_id":    cartIdentity,
		"product_id": productID,
		"quantity":   line.Quantity,
	})

	return line, nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or below removes
// the line; that is a removal, not an error.
func (s *CartService) UpdateQuantity(ctx context.Context, cartIdentity string, lineID int64, quantity int) (err error) {
	defer func() { metrics.ObserveCartOperation("update", err) }()

	if _, err = s.carts.GetLine(ctx, cartIdentity, lineID); err != nil {
		return err
	}

	if quantity <= 0 {
		return s.carts.DeleteLine(ctx, cartIdentity, lineID)
	}

	return s.carts.UpdateLineQuantity(ctx, cartIdentity, lineID, quantity)
}

// RemoveLine deletes a line owned by the identity. Removing an absent line
// is a no-op.
func (s *CartService) RemoveLine(ctx context.Context, cartIdentity string, lineID int64) (err error) {
	defer func() { metrics.ObserveCartOperation("remove", err) }()
	return s.carts.DeleteLine(ctx, cartIdentity, lineID)
}

// ClearCart deletes all lines owned by the identity.
func (s *CartService) ClearCart(ctx context.Context, cartIdentity string) (err error) {
	defer func() { metrics.ObserveCartOperation("clear", err) }()
	return s.carts.Clear(ctx, cartIdentity)
}

// GetCartLines returns the identity's lines with product data attached.
func (s *CartService) GetCartLines(ctx context.Context, cartIdentity string) ([]*models.CartLine, error) {
	return s.carts.GetLines(ctx, cartIdentity)
}

// GetCartTotal sums current product price times quantity across the cart.
// This is the live price, not the snapshot taken at checkout: the cart
// total is always "what it would cost now".
func (s *CartService) GetCartTotal(ctx context.Context, cartIdentity string) (models.Money, error) {
	lines, err := s.carts.GetLines(ctx, cartIdentity)
	if err != nil {
		return models.Money{}, err
	}
	return cartTotal(lines), nil
}

// GetCartItemCount sums line quantities, not line count.
func (s *CartService) GetCartItemCount(ctx context.Context, cartIdentity string) (int, error) {
	lines, err := s.carts.GetLines(ctx, cartIdentity)
	if err != nil {
		return 0, err
	}
	return cartItemCount(lines), nil
}

// GetCart returns the full cart view: lines, live total, and item count.
func (s *CartService) GetCart(ctx context.Context, cartIdentity string) (*models.Cart, error) {
	lines, err := s.carts.GetLines(ctx, cartIdentity)
	if err != nil {
		return nil, err
	}

	return &models.Cart{
		Identity: cartIdentity,
		Lines:    lines,
		Total:    cartTotal(lines),
		Count:    cartItemCount(lines),
	}, nil
}

// MergeCart folds an anonymous cart into the authenticated user's cart.
// Called by the client after sign-in so lines added before login are kept.
func (s *CartService) MergeCart(ctx context.Context, anonymousIdentity, userIdentity string) (err error) {
	defer func() { metrics.ObserveCartOperation("merge", err) }()

	if anonymousIdentity == "" || anonymousIdentity == userIdentity {
		return nil
	}

	if err = s.carts.Merge(ctx, anonymousIdentity, userIdentity); err != nil {
		return err
	}

	s.logger.Info("Anonymous cart merged", logging.Fields{
		"user_id": userIdentity,
	})
	return nil
}

func cartTotal(lines []*models.CartLine) models.Money {
	var total models.Money
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

func cartItemCount(lines []*models.CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}
