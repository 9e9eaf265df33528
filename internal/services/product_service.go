// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=255"`
	Description string          `json:"description" validate:"omitempty,max=5000"`
	Category    string          `json:"category" validate:"required,max=100"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        string          `json:"unit" validate:"omitempty,max=20"`
	Stock       int             `json:"stock" validate:"min=0"`
	Images      []string        `json:"images,omitempty"`
}

type UpdateProductRequest struct {
	Name        string               `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description string               `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    string               `json:"category,omitempty" validate:"omitempty,max=100"`
	UnitPrice   *decimal.Decimal     `json:"unit_price,omitempty"`
	Unit        string               `json:"unit,omitempty" validate:"omitempty,max=20"`
	Stock       *int                 `json:"stock,omitempty" validate:"omitempty,min=0"`
	Images      []string             `json:"images,omitempty"`
	Status      models.ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=draft active sold_out"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	SellerID *uuid.UUID       `json:"seller_id,omitempty"`
	Category string           `json:"category,omitempty"`
	PriceMin *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax *decimal.Decimal `json:"price_max,omitempty"`
	InStock  bool             `json:"in_stock,omitempty"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(ctx context.Context, sellerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.UnitPrice.IsPositive() {
		return nil, ErrInvalidAmounts
	}

	db := s.db.WithContext(ctx)

	var seller models.User
	if err := db.First(&seller, "id = ?", sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if seller.Role != models.UserRoleBusiness && seller.Role != models.UserRoleAdmin {
		return nil, ErrForbidden
	}
	if seller.Status != models.UserStatusActive {
		return nil, ErrAccountInactive
	}

	unit := req.Unit
	if unit == "" {
		unit = "kg"
	}

	product := &models.Product{
		SellerID:    sellerID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		UnitPrice:   req.UnitPrice.Round(2),
		Unit:        unit,
		Stock:       req.Stock,
		Images:      req.Images,
		Status:      models.ProductStatusActive,
	}
	if err := db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	product.Seller = seller
	return product, nil
}

// GetProduct hides non-active products from everyone but their seller.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.Status != models.ProductStatusActive && (viewerID == nil || *viewerID != product.SellerID) {
		return nil, ErrProductNotFound
	}

	return &product, nil
}

// CheckoutProduct loads what a checkout flow needs: the active product and its seller.
func (s *ProductService) CheckoutProduct(ctx context.Context, id uuid.UUID) (checkout.Product, checkout.Party, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return checkout.Product{}, checkout.Party{}, ErrProductNotFound
		}
		return checkout.Product{}, checkout.Party{}, fmt.Errorf("database error: %w", err)
	}
	if product.Status != models.ProductStatusActive {
		return checkout.Product{}, checkout.Party{}, ErrProductUnavailable
	}

	return checkout.Product{
		ID:        product.ID,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		SellerID:  product.SellerID,
	}, PartyOf(&product.Seller), nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id, sellerID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if product.SellerID != sellerID {
		return nil, ErrForbidden
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.UnitPrice != nil {
		if !req.UnitPrice.IsPositive() {
			return nil, ErrInvalidAmounts
		}
		updates["unit_price"] = req.UnitPrice.Round(2)
	}
	if req.Unit != "" {
		updates["unit"] = req.Unit
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Images != nil {
		updates["images"] = req.Images
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	if len(updates) > 0 {
		if err := db.Model(&product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	if err := db.Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id, sellerID uuid.UUID) error {
	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	if product.SellerID != sellerID {
		return ErrForbidden
	}

	// Products with open or settled sales are only taken off the shelf.
	var sales int64
	if err := db.Model(&models.Transaction{}).
		Where("product_id = ? AND status IN ?", id, []models.TransactionStatus{
			models.TransactionStatusPending,
			models.TransactionStatusProcessing,
			models.TransactionStatusCompleted,
		}).
		Count(&sales).Error; err != nil {
		return fmt.Errorf("failed to check sales: %w", err)
	}
	if sales > 0 {
		return db.Model(&product).Update("status", models.ProductStatusSuspended).Error
	}

	if err := db.Delete(&product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	} else {
		query = query.Where("status = ?", models.ProductStatusActive)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}
	if params.PriceMin != nil {
		query = query.Where("unit_price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("unit_price <= ?", *params.PriceMax)
	}
	if params.InStock {
		query = query.Where("stock > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "unit_price", "sales_count"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Preload("Seller").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) GetPopularProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("status = ?", models.ProductStatusActive).
		Order("sales_count DESC, created_at DESC").
		Limit(limit).
		Preload("Seller").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch popular products: %w", err)
	}

	return products, nil
}
