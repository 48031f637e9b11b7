package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

type catalogFixture struct {
	svc        *CatalogService
	products   *repository.MemoryProductRepository
	categories *repository.MemoryCategoryRepository
	cache      *repository.MemoryProductCache
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	products := repository.NewMemoryProductRepository()
	categories := repository.NewMemoryCategoryRepository(products)
	cache := repository.NewMemoryProductCache()

	svc := NewCatalogService(products, categories, cache, config.FeatureFlags{
		EnableProductCaching: true,
	}, "USD")

	return &catalogFixture{svc: svc, products: products, categories: categories, cache: cache}
}

func (f *catalogFixture) seedCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	category, err := f.categories.Create(context.Background(), &models.Category{Name: name})
	require.NoError(t, err)
	return category
}

func TestCreateProduct(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	category := f.seedCategory(t, "Peripherals")

	product, err := f.svc.CreateProduct(ctx, &models.CreateProductRequest{
		Name:       "Keyboard",
		Price:      49.99,
		CategoryID: category.ID,
		Stock:      10,
		Available:  true,
	})
	require.NoError(t, err)
	assert.NotZero(t, product.ID)
	assert.Equal(t, 1, product.Version)
	assert.Equal(t, int64(4999), product.Price.Amount)
	assert.Equal(t, "USD", product.Price.Currency)
}

func TestCreateProductValidation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	category := f.seedCategory(t, "Peripherals")

	tests := []struct {
		name  string
		req   *models.CreateProductRequest
		field string
	}{
		{"missing name", &models.CreateProductRequest{CategoryID: category.ID}, "name"},
		{"negative price", &models.CreateProductRequest{Name: "X", Price: -1, CategoryID: category.ID}, "price"},
		{"negative stock", &models.CreateProductRequest{Name: "X", Stock: -1, CategoryID: category.ID}, "stock"},
		{"missing category", &models.CreateProductRequest{Name: "X"}, "category_id"},
		{"unknown category", &models.CreateProductRequest{Name: "X", CategoryID: 999}, "category_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateProduct(ctx, tt.req)
			var validationErr *apperrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestUpdateProductConcurrencyConflict(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	category := f.seedCategory(t, "Peripherals")

	product, err := f.svc.CreateProduct(ctx, &models.CreateProductRequest{
		Name:       "Mouse",
		Price:      19.99,
		CategoryID: category.ID,
		Stock:      5,
		Available:  true,
	})
	require.NoError(t, err)

	req := &models.UpdateProductRequest{
		Name:       "Mouse v2",
		Price:      24.99,
		CategoryID: category.ID,
		Stock:      5,
		Available:  true,
		Version:    product.Version,
	}

	updated, err := f.svc.UpdateProduct(ctx, product.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	// Replaying the same edit carries the stale version.
	_, err = f.svc.UpdateProduct(ctx, product.ID, req)
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
}

func TestUpdateProductEvictsCache(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	category := f.seedCategory(t, "Peripherals")

	product, err := f.svc.CreateProduct(ctx, &models.CreateProductRequest{
		Name:       "Webcam",
		Price:      59.99,
		CategoryID: category.ID,
		Stock:      3,
		Available:  true,
	})
	require.NoError(t, err)

	// Prime the cache through a read.
	_, err = f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	cached, err := f.cache.Get(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)

	_, err = f.svc.UpdateProduct(ctx, product.ID, &models.UpdateProductRequest{
		Name:       "Webcam HD",
		Price:      69.99,
		CategoryID: category.ID,
		Stock:      3,
		Available:  true,
		Version:    product.Version,
	})
	require.NoError(t, err)

	cached, err = f.cache.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestGetProductServesFromCache(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	category := f.seedCategory(t, "Peripherals")

	product, err := f.svc.CreateProduct(ctx, &models.CreateProductRequest{
		Name:       "Speaker",
		Price:      39.99,
		CategoryID: category.ID,
		Stock:      4,
		Available:  true,
	})
	require.NoError(t, err)

	_, err = f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)

	// Deleting straight from storage leaves only the cached copy.
	require.NoError(t, f.products.Delete(ctx, product.ID))

	fromCache, err := f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, fromCache.ID)
}

func TestListProductsByCategory(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	first := f.seedCategory(t, "Audio")
	second := f.seedCategory(t, "Video")

	for _, c := range []int64{first.ID, first.ID, second.ID} {
		_, err := f.svc.CreateProduct(ctx, &models.CreateProductRequest{
			Name:       "Item",
			Price:      10,
			CategoryID: c,
			Stock:      1,
			Available:  true,
		})
		require.NoError(t, err)
	}

	products, err := f.svc.ListProducts(ctx, repository.ProductFilter{CategoryID: first.ID})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = f.svc.ListProducts(ctx, repository.ProductFilter{CategoryID: 999})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteCategoryBlockedWhileInUse(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	category := f.seedCategory(t, "Storage")

	_, err := f.svc.CreateProduct(ctx, &models.CreateProductRequest{
		Name:       "SSD",
		Price:      89.99,
		CategoryID: category.ID,
		Stock:      7,
		Available:  true,
	})
	require.NoError(t, err)

	err = f.svc.DeleteCategory(ctx, category.ID)
	assert.ErrorIs(t, err, apperrors.ErrCategoryInUse)
}

func TestUpdateCategoryConcurrencyConflict(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.svc.CreateCategory(ctx, &models.CreateCategoryRequest{Name: "Cables"})
	require.NoError(t, err)

	req := &models.UpdateCategoryRequest{Name: "Cables & Adapters", Version: category.Version}

	updated, err := f.svc.UpdateCategory(ctx, category.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	_, err = f.svc.UpdateCategory(ctx, category.ID, req)
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
}

func TestCreateCategoryValidation(t *testing.T) {
	f := newCatalogFixture(t)

	var validationErr *apperrors.ValidationError
	_, err := f.svc.CreateCategory(context.Background(), &models.CreateCategoryRequest{Name: "  "})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}
