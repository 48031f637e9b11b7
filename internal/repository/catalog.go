package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// PostgresProductRepository implements ProductRepository using PostgreSQL.
type PostgresProductRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresProductRepository creates a new PostgreSQL product repository.
func NewPostgresProductRepository(db *sql.DB, logger *logging.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{db: db, logger: logger}
}

const productColumns = `id, name, description, price_cents, currency, image_url,
	       category_id, stock, available, version, created_at, updated_at`

// GetByID retrieves a product by its id.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	return product, nil
}

// List retrieves products, optionally filtered by category and availability.
func (r *PostgresProductRepository) List(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = 0 OR category_id = $1)
		  AND (NOT $2 OR (available AND stock > 0))
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, filter.CategoryID, filter.AvailableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

// Create inserts a new product.
func (r *PostgresProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Version = 1

	query := `
		INSERT INTO products (name, description, price_cents, currency, image_url,
		                      category_id, stock, available, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		product.Name,
		product.Description,
		product.Price.Amount,
		product.Price.Currency,
		product.ImageURL,
		product.CategoryID,
		product.Stock,
		product.Available,
		product.Version,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)

	if err != nil {
		r.logger.Error("Failed to create product", logging.Fields{
			"name":  product.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	r.logger.Info("Product created", logging.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	})

	return product, nil
}

// Update applies an admin edit with an optimistic concurrency check on the
// row version the editor loaded.
func (r *PostgresProductRepository) Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	price := models.NewMoney(req.Price, req.Currency)

	query := `
		UPDATE products
		SET name = $3, description = $4, price_cents = $5, currency = $6,
		    image_url = $7, category_id = $8, stock = $9, available = $10,
		    version = version + 1, updated_at = $11
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		req.Version,
		req.Name,
		req.Description,
		price.Amount,
		price.Currency,
		req.ImageURL,
		req.CategoryID,
		req.Stock,
		req.Available,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		// Either the row is gone or another edit bumped the version.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		r.logger.Warn("Product edit conflict", logging.Fields{
			"product_id":       id,
			"expected_version": req.Version,
		})
		return nil, apperrors.ErrConcurrencyConflict
	}

	return r.GetByID(ctx, id)
}

// Delete removes a product.
func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	r.logger.Info("Product deleted", logging.Fields{"product_id": id})
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	err := row.Scan(
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
	return &product, nil
}

// PostgresCategoryRepository implements CategoryRepository using PostgreSQL.
type PostgresCategoryRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresCategoryRepository creates a new PostgreSQL category repository.
func NewPostgresCategoryRepository(db *sql.DB, logger *logging.Logger) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db, logger: logger}
}

// GetByID retrieves a category by its id.
func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, version FROM categories WHERE id = $1`, id,
	).Scan(&category.ID, &category.Name, &category.Description, &category.Version)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &category, nil
}

// List retrieves all categories.
func (r *PostgresCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, version FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.Version); err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

// Create inserts a new category.
func (r *PostgresCategoryRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.Version = 1
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, description, version) VALUES ($1, $2, $3) RETURNING id`,
		category.Name, category.Description, category.Version,
	).Scan(&category.ID)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Category created", logging.Fields{
		"category_id": category.ID,
		"name":        category.Name,
	})

	return category, nil
}

// Update applies an admin edit with the same version check as products.
func (r *PostgresCategoryRepository) Update(ctx context.Context, id int64, req *models.UpdateCategoryRequest) (*models.Category, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $3, description = $4, version = version + 1
		WHERE id = $1 AND version = $2
	`, id, req.Version, req.Name, req.Description)
	if err != nil {
		return nil, err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrConcurrencyConflict
	}

	return r.GetByID(ctx, id)
}

// Delete removes a category. Deletion is blocked while products reference it.
func (r *PostgresCategoryRepository) Delete(ctx context.Context, id int64) error {
	var productCount int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE category_id = $1`, id,
	).Scan(&productCount)
	if err != nil {
		return err
	}
	if productCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	r.logger.Info("Category deleted", logging.Fields{"category_id": id})
	return nil
}
