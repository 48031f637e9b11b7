package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

func newCartFixture(t *testing.T) (*CartService, *repository.MemoryProductRepository, *repository.MemoryCartRepository) {
	t.Helper()
	products := repository.NewMemoryProductRepository()
	carts := repository.NewMemoryCartRepository(products)
	return NewCartService(carts, products), products, carts
}

func seedProduct(t *testing.T, products *repository.MemoryProductRepository, name string, price float64, stock int) *models.Product {
	t.Helper()
	product, err := products.Create(context.Background(), &models.Product{
		Name:       name,
		Price:      models.NewMoney(price, "USD"),
		CategoryID: 1,
		Stock:      stock,
		Available:  true,
	})
	require.NoError(t, err)
	return product
}

func TestAddToCartIncrementsExistingLine(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	product := seedProduct(t, products, "Keyboard", 49.99, 10)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "cart-1", product.ID, 2)
	require.NoError(t, err)

	line, err := svc.AddToCart(ctx, "cart-1", product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)

	lines, err := svc.GetCartLines(ctx, "cart-1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestAddToCartCoercesQuantityToOne(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	product := seedProduct(t, products, "Mouse", 19.99, 5)

	for _, quantity := range []int{0, -3} {
		line, err := svc.AddToCart(context.Background(), "cart-coerce", product.ID, quantity)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, line.Quantity, 1)
	}
}

func TestAddToCartRejectsUnavailableProduct(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "cart-1", 999, 1)
	assert.ErrorIs(t, err, apperrors.ErrProductUnavailable)

	hidden, repoErr := products.Create(ctx, &models.Product{
		Name:      "Hidden",
		Price:     models.NewMoney(10, "USD"),
		Stock:     5,
		Available: false,
	})
	require.NoError(t, repoErr)
	_, err = svc.AddToCart(ctx, "cart-1", hidden.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrProductUnavailable)

	outOfStock := seedProduct(t, products, "Empty shelf", 10, 0)
	_, err = svc.AddToCart(ctx, "cart-1", outOfStock.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrProductUnavailable)
}

func TestAddToCartDoesNotDecrementStock(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	product := seedProduct(t, products, "Monitor", 199.99, 2)
	ctx := context.Background()

	// The requested quantity may exceed stock on hand; adding only checks
	// that stock exists.
	_, err := svc.AddToCart(ctx, "cart-1", product.ID, 50)
	require.NoError(t, err)

	after, err := products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Stock)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	product := seedProduct(t, products, "Cable", 9.99, 10)
	ctx := context.Background()

	line, err := svc.AddToCart(ctx, "cart-1", product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateQuantity(ctx, "cart-1", line.ID, 0))

	lines, err := svc.GetCartLines(ctx, "cart-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	svc, _, _ := newCartFixture(t)

	err := svc.UpdateQuantity(context.Background(), "cart-1", 42, 3)
	assert.ErrorIs(t, err, apperrors.ErrLineNotFound)
}

func TestRemoveAbsentLineIsNoOp(t *testing.T) {
	svc, _, _ := newCartFixture(t)

	assert.NoError(t, svc.RemoveLine(context.Background(), "cart-1", 42))
}

func TestCartTotalTracksCurrentPrices(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	product := seedProduct(t, products, "Headset", 100, 10)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "cart-1", product.ID, 2)
	require.NoError(t, err)

	total, err := svc.GetCartTotal(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), total.Amount)

	products.SetPrice(product.ID, models.NewMoney(80, "USD"))

	total, err = svc.GetCartTotal(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(16000), total.Amount)
}

func TestCartItemCountSumsQuantities(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	first := seedProduct(t, products, "A", 10, 10)
	second := seedProduct(t, products, "B", 20, 10)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "cart-1", first.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "cart-1", second.ID, 3)
	require.NoError(t, err)

	count, err := svc.GetCartItemCount(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	cart, err := svc.GetCart(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Count)
	assert.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(8000), cart.Total.Amount)
}

func TestMergeCartCombinesQuantities(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	shared := seedProduct(t, products, "Shared", 10, 10)
	anonOnly := seedProduct(t, products, "Anon only", 20, 10)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "anon-cart", shared.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "anon-cart", anonOnly.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "user-1", shared.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.MergeCart(ctx, "anon-cart", "user-1"))

	userLines, err := svc.GetCartLines(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, userLines, 2)

	byProduct := make(map[int64]int)
	for _, line := range userLines {
		byProduct[line.ProductID] = line.Quantity
	}
	assert.Equal(t, 3, byProduct[shared.ID])
	assert.Equal(t, 1, byProduct[anonOnly.ID])

	anonLines, err := svc.GetCartLines(ctx, "anon-cart")
	require.NoError(t, err)
	assert.Empty(t, anonLines)
}

func TestMergeCartSameIdentityIsNoOp(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	product := seedProduct(t, products, "Widget", 10, 10)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "user-1", product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.MergeCart(ctx, "user-1", "user-1"))
	require.NoError(t, svc.MergeCart(ctx, "", "user-1"))

	lines, err := svc.GetCartLines(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestClearCart(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	product := seedProduct(t, products, "Gadget", 10, 10)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "cart-1", product.ID, 4)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, "cart-1"))

	cart, err := svc.GetCart(ctx, "cart-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, int64(0), cart.Total.Amount)
}
