package service

import (
	"context"
	"errors"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// CatalogService serves the public catalog and the admin back-office CRUD.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      repository.ProductCache
	features   config.FeatureFlags
	currency   string
	logger     *logging.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	cache repository.ProductCache,
	features config.FeatureFlags,
	currency string,
) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		cache:      cache,
		features:   features,
		currency:   currency,
		logger:     logging.NewLogger("catalog-service"),
	}
}

// GetProduct returns a product by id, reading through the cache when enabled.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if s.features.EnableProductCaching {
		if cached, err := s.cache.Get(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.features.EnableProductCaching {
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.Warn("Failed to cache product", logging.Fields{
				"product_id": id,
				"error":      err.Error(),
			})
		}
	}

	return product, nil
}

// ListProducts returns catalog products, optionally filtered by category and
// availability.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*models.Product, error) {
	if filter.CategoryID > 0 {
		if _, err := s.categories.GetByID(ctx, filter.CategoryID); err != nil {
			return nil, err
		}
	}
	return s.products.List(ctx, filter)
}

// ListCategories returns all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.categories.List(ctx)
}

// GetCategory returns a category by id.
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

// CreateProduct creates a catalog product from an admin request.
func (s *CatalogService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := validateCreateProduct(req); err != nil {
		return nil, err
	}

	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("category_id", "category does not exist")
		}
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	now := time.Now()
	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       models.NewMoney(req.Price, currency),
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
		Available:   req.Available,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created", logging.Fields{
		"product_id": created.ID,
		"name":       created.Name,
	})

	return created, nil
}

// UpdateProduct applies an admin edit. The request carries the row version the
// editor loaded; an intervening edit surfaces as a concurrency conflict.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	if err := validateUpdateProduct(req); err != nil {
		return nil, err
	}

	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("category_id", "category does not exist")
		}
		return nil, err
	}

	if req.Currency == "" {
		req.Currency = s.currency
	}

	updated, err := s.products.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.invalidateProduct(ctx, id)

	return updated, nil
}

// DeleteProduct removes a product and evicts it from the cache.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateProduct(ctx, id)

	s.logger.Info("Product deleted", logging.Fields{
		"product_id": id,
	})
	return nil
}

// CreateCategory creates a category from an admin request.
func (s *CatalogService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	if err := validateCategoryName(req.Name); err != nil {
		return nil, err
	}

	return s.categories.Create(ctx, &models.Category{
		Name:        req.Name,
		Description: req.Description,
		Version:     1,
	})
}

// UpdateCategory applies a version-checked admin edit to a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, req *models.UpdateCategoryRequest) (*models.Category, error) {
	if err := validateCategoryName(req.Name); err != nil {
		return nil, err
	}
	return s.categories.Update(ctx, id, req)
}

// DeleteCategory removes a category. Fails while products still reference it.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return s.categories.Delete(ctx, id)
}

func (s *CatalogService) invalidateProduct(ctx context.Context, id int64) {
	if !s.features.EnableProductCaching {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("Failed to evict product from cache", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
	}
}
