package service

import (
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const maxNameLength = 200

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.NewValidationError("name", "product name is required")
	}
	if len(name) > maxNameLength {
		return apperrors.NewValidationError("name", "product name is too long")
	}
	return nil
}

func validateCreateProduct(req *models.CreateProductRequest) error {
	if err := validateProductName(req.Name); err != nil {
		return err
	}
	if req.Price < 0 {
		return apperrors.NewValidationError("price", "price must not be negative")
	}
	if req.Stock < 0 {
		return apperrors.NewValidationError("stock", "stock must not be negative")
	}
	if req.CategoryID <= 0 {
		return apperrors.NewValidationError("category_id", "category is required")
	}
	return nil
}

func validateUpdateProduct(req *models.UpdateProductRequest) error {
	if err := validateProductName(req.Name); err != nil {
		return err
	}
	if req.Price < 0 {
		return apperrors.NewValidationError("price", "price must not be negative")
	}
	if req.Stock < 0 {
		return apperrors.NewValidationError("stock", "stock must not be negative")
	}
	if req.CategoryID <= 0 {
		return apperrors.NewValidationError("category_id", "category is required")
	}
	if req.Version < 0 {
		return apperrors.NewValidationError("version", "version must not be negative")
	}
	return nil
}

func validateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.NewValidationError("name", "category name is required")
	}
	if len(name) > maxNameLength {
		return apperrors.NewValidationError("name", "category name is too long")
	}
	return nil
}
