// internal/services/pricing_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/config"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type PricingService struct {
	db     *gorm.DB
	config *config.Config
	now    func() time.Time
}

type CreatePricingRuleRequest struct {
	ProductID       *uuid.UUID       `json:"product_id,omitempty"`
	Name            string           `json:"name" validate:"required,max=120"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	MinAmount       *decimal.Decimal `json:"min_amount,omitempty"`
	TermDays        *int             `json:"term_days,omitempty" validate:"omitempty,min=1"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty"`
	ValidFrom       *time.Time       `json:"valid_from,omitempty"`
	ValidUntil      *time.Time       `json:"valid_until,omitempty"`
}

type QuoteRequest struct {
	ProductID uuid.UUID `validate:"required"`
	Quantity  int       `validate:"min=1"`
}

func NewPricingService(db *gorm.DB, config *config.Config) *PricingService {
	return &PricingService{
		db:     db,
		config: config,
		now:    time.Now,
	}
}

// GetApplicablePricing returns the most specific active rule for the amount:
// a product rule beats a seller-wide rule, newer beats older. It returns nil
// when no rule applies.
func (s *PricingService) GetApplicablePricing(ctx context.Context, sellerID, productID uuid.UUID, amount decimal.Decimal) (*checkout.ApplicablePricing, error) {
	now := s.now()

	var rule models.PricingRule
	err := s.db.WithContext(ctx).
		Where("seller_id = ? AND is_active = ?", sellerID, true).
		Where("product_id = ? OR product_id IS NULL", productID).
		Where("valid_from IS NULL OR valid_from <= ?", now).
		Where("valid_until IS NULL OR valid_until > ?", now).
		Where("min_amount IS NULL OR min_amount <= ?", amount).
		Order("product_id IS NULL").
		Order("created_at DESC").
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load pricing rules: %w", err)
	}

	return &checkout.ApplicablePricing{
		DiscountPercent: rule.DiscountPercent,
		TermDays:        rule.TermDays,
		InterestRate:    rule.InterestRate,
	}, nil
}

// Quote prices quantity units of a product the way a checkout flow would.
func (s *PricingService) Quote(ctx context.Context, req *QuoteRequest) (*checkout.PricingQuote, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	amount := product.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
	pricing, err := s.GetApplicablePricing(ctx, product.SellerID, product.ID, amount)
	if err != nil {
		return nil, err
	}
	if pricing == nil {
		pricing = &checkout.ApplicablePricing{}
	}

	quote := checkout.ApplyPricing(amount, *pricing)
	return &quote, nil
}

func (s *PricingService) CreateRule(ctx context.Context, sellerID uuid.UUID, req *CreatePricingRuleRequest) (*models.PricingRule, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	hundred := decimal.NewFromInt(100)
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: discount percent must be between 0 and 100", ErrInvalidInput)
	}
	if req.MinAmount != nil && req.MinAmount.IsNegative() {
		return nil, fmt.Errorf("%w: minimum amount must not be negative", ErrInvalidInput)
	}
	if req.TermDays != nil && *req.TermDays > s.config.Credit.MaxTermDays {
		return nil, fmt.Errorf("%w: term days must be at most %d", ErrInvalidInput, s.config.Credit.MaxTermDays)
	}
	if req.InterestRate != nil {
		if err := s.validateRate(*req.InterestRate); err != nil {
			return nil, err
		}
	}
	if req.ValidFrom != nil && req.ValidUntil != nil && !req.ValidUntil.After(*req.ValidFrom) {
		return nil, fmt.Errorf("%w: valid_until must be after valid_from", ErrInvalidInput)
	}

	if req.ProductID != nil {
		var product models.Product
		if err := s.db.WithContext(ctx).Select("id", "seller_id").First(&product, "id = ?", *req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		if product.SellerID != sellerID {
			return nil, ErrSellerMismatch
		}
	}

	rule := &models.PricingRule{
		SellerID:        sellerID,
		ProductID:       req.ProductID,
		Name:            req.Name,
		DiscountPercent: req.DiscountPercent,
		MinAmount:       req.MinAmount,
		TermDays:        req.TermDays,
		InterestRate:    req.InterestRate,
		IsActive:        true,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
	}

	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create pricing rule: %w", err)
	}

	return rule, nil
}

func (s *PricingService) ListRules(ctx context.Context, sellerID uuid.UUID, params utils.PaginationParams) ([]models.PricingRule, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PricingRule{}).Where("seller_id = ?", sellerID)

	switch params.Status {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pricing rules: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "discount_percent", "name"})
	query = utils.ApplyPagination(query, params)

	var rules []models.PricingRule
	if err := query.Find(&rules).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch pricing rules: %w", err)
	}

	return rules, total, nil
}

func (s *PricingService) validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromFloat(s.config.Credit.MaxInterestRate)) {
		return fmt.Errorf("%w: interest rate must be between 0 and %.2f", ErrInvalidInput, s.config.Credit.MaxInterestRate)
	}
	return nil
}
