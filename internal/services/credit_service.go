// internal/services/credit_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/config"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type CreditService struct {
	db     *gorm.DB
	config *config.Config
}

type SetCreditLimitRequest struct {
	CustomerID  uuid.UUID       `json:"customer_id"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

type UpdateCreditTermsRequest struct {
	Enabled         bool            `json:"enabled"`
	DefaultTermDays int             `json:"default_term_days" validate:"min=0"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
}

// CreditCustomer is a customer linked to a seller through a credit limit.
type CreditCustomer struct {
	Customer        checkout.Party  `json:"customer"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	UsedCredit      decimal.Decimal `json:"used_credit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

// SellerCredit is what a buyer sees about one seller's deferred-payment offer.
type SellerCredit struct {
	Seller          checkout.Party          `json:"seller"`
	Enabled         bool                    `json:"enabled"`
	DefaultTermDays int                     `json:"default_term_days"`
	InterestRate    decimal.Decimal         `json:"interest_rate"`
	Ceiling         *checkout.CreditCeiling `json:"ceiling,omitempty"`
}

func NewCreditService(db *gorm.DB, config *config.Config) *CreditService {
	return &CreditService{
		db:     db,
		config: config,
	}
}

// CheckAvailability reports whether buyer may defer amount with seller. Credit
// is offered when the seller enabled terms or linked the buyer with a limit;
// a linked limit must also cover the amount.
func (s *CreditService) CheckAvailability(ctx context.Context, buyerID, sellerID uuid.UUID, amount decimal.Decimal) (*checkout.CreditAvailability, error) {
	db := s.db.WithContext(ctx)

	terms, err := findCreditTerms(db, sellerID)
	if err != nil {
		return nil, err
	}
	limit, err := findCreditLimit(db, sellerID, buyerID, false)
	if err != nil {
		return nil, err
	}

	result := &checkout.CreditAvailability{InterestRate: decimal.Zero}
	if terms != nil {
		result.TermDays = terms.DefaultTermDays
		result.InterestRate = terms.InterestRate
	}

	switch {
	case limit != nil:
		result.Available = amount.LessThanOrEqual(limit.AvailableCredit())
	case terms != nil:
		result.Available = terms.Enabled
	}

	return result, nil
}

// GetCustomerCreditLimit returns nil when the seller has not linked the buyer.
func (s *CreditService) GetCustomerCreditLimit(ctx context.Context, buyerID, sellerID uuid.UUID) (*checkout.CreditCeiling, error) {
	limit, err := findCreditLimit(s.db.WithContext(ctx), sellerID, buyerID, false)
	if err != nil || limit == nil {
		return nil, err
	}
	return checkout.NewCreditCeiling(limit.CreditLimit, limit.UsedCredit)
}

func (s *CreditService) GetSellerCredit(ctx context.Context, buyerID, sellerID uuid.UUID) (*SellerCredit, error) {
	db := s.db.WithContext(ctx)

	var seller models.User
	if err := db.First(&seller, "id = ? AND role = ?", sellerID, models.UserRoleBusiness).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	summary := &SellerCredit{Seller: PartyOf(&seller), InterestRate: decimal.Zero}

	terms, err := findCreditTerms(db, sellerID)
	if err != nil {
		return nil, err
	}
	if terms != nil {
		summary.Enabled = terms.Enabled
		summary.DefaultTermDays = terms.DefaultTermDays
		summary.InterestRate = terms.InterestRate
	}

	ceiling, err := s.GetCustomerCreditLimit(ctx, buyerID, sellerID)
	if err != nil {
		return nil, err
	}
	summary.Ceiling = ceiling

	return summary, nil
}

// SetCreditLimit links a customer to the seller or changes the existing limit.
func (s *CreditService) SetCreditLimit(ctx context.Context, sellerID uuid.UUID, req *SetCreditLimitRequest) (*models.CreditLimit, error) {
	if req.CustomerID == uuid.Nil {
		return nil, ErrCustomerRequired
	}
	if req.CustomerID == sellerID {
		return nil, fmt.Errorf("%w: cannot extend credit to yourself", ErrInvalidInput)
	}
	if req.CreditLimit.IsNegative() {
		return nil, fmt.Errorf("%w: credit limit must not be negative", ErrInvalidInput)
	}

	var result models.CreditLimit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.User
		if err := tx.Select("id").First(&customer, "id = ?", req.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		existing, err := findCreditLimit(tx, sellerID, req.CustomerID, true)
		if err != nil {
			return err
		}

		if existing == nil {
			result = models.CreditLimit{
				SellerID:    sellerID,
				CustomerID:  req.CustomerID,
				CreditLimit: req.CreditLimit.Round(2),
				UsedCredit:  decimal.Zero,
			}
			if err := tx.Create(&result).Error; err != nil {
				return fmt.Errorf("failed to create credit limit: %w", err)
			}
			return nil
		}

		if req.CreditLimit.LessThan(existing.UsedCredit) {
			return ErrLimitBelowUsed
		}
		existing.CreditLimit = req.CreditLimit.Round(2)
		if err := tx.Model(existing).Update("credit_limit", existing.CreditLimit).Error; err != nil {
			return fmt.Errorf("failed to update credit limit: %w", err)
		}
		result = *existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *CreditService) UpsertTerms(ctx context.Context, sellerID uuid.UUID, req *UpdateCreditTermsRequest) (*models.CreditTerms, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.DefaultTermDays > s.config.Credit.MaxTermDays {
		return nil, fmt.Errorf("%w: default term must be at most %d days", ErrInvalidInput, s.config.Credit.MaxTermDays)
	}
	if req.InterestRate.IsNegative() || req.InterestRate.GreaterThan(decimal.NewFromFloat(s.config.Credit.MaxInterestRate)) {
		return nil, fmt.Errorf("%w: interest rate must be between 0 and %.2f", ErrInvalidInput, s.config.Credit.MaxInterestRate)
	}

	terms := models.CreditTerms{SellerID: sellerID}
	err := s.db.WithContext(ctx).
		Where(models.CreditTerms{SellerID: sellerID}).
		Assign(map[string]interface{}{
			"enabled":           req.Enabled,
			"default_term_days": req.DefaultTermDays,
			"interest_rate":     req.InterestRate,
		}).
		FirstOrCreate(&terms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save credit terms: %w", err)
	}

	return &terms, nil
}

func (s *CreditService) ListCustomers(ctx context.Context, sellerID uuid.UUID, params utils.PaginationParams) ([]CreditCustomer, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.CreditLimit{}).Where("seller_id = ?", sellerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "credit_limit", "used_credit"})
	query = utils.ApplyPagination(query, params)

	var limits []models.CreditLimit
	if err := query.Preload("Customer").Find(&limits).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}

	customers := make([]CreditCustomer, 0, len(limits))
	for i := range limits {
		limit := &limits[i]
		customers = append(customers, CreditCustomer{
			Customer:        PartyOf(&limit.Customer),
			CreditLimit:     limit.CreditLimit,
			UsedCredit:      limit.UsedCredit,
			AvailableCredit: limit.AvailableCredit(),
		})
	}

	return customers, total, nil
}

// consumeCredit books amount against the buyer's limit inside tx. A buyer
// without a limit is only bounded by the seller's terms.
func consumeCredit(tx *gorm.DB, sellerID, buyerID uuid.UUID, amount decimal.Decimal) error {
	limit, err := findCreditLimit(tx, sellerID, buyerID, true)
	if err != nil || limit == nil {
		return err
	}
	if amount.GreaterThan(limit.AvailableCredit()) {
		return ErrCreditLimitExceeded
	}
	return tx.Model(limit).Update("used_credit", limit.UsedCredit.Add(amount)).Error
}

func releaseCredit(tx *gorm.DB, sellerID, buyerID uuid.UUID, amount decimal.Decimal) error {
	limit, err := findCreditLimit(tx, sellerID, buyerID, true)
	if err != nil || limit == nil {
		return err
	}
	used := limit.UsedCredit.Sub(amount)
	if used.IsNegative() {
		used = decimal.Zero
	}
	return tx.Model(limit).Update("used_credit", used).Error
}

func findCreditTerms(db *gorm.DB, sellerID uuid.UUID) (*models.CreditTerms, error) {
	var terms models.CreditTerms
	if err := db.Where("seller_id = ?", sellerID).First(&terms).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load credit terms: %w", err)
	}
	return &terms, nil
}

func findCreditLimit(db *gorm.DB, sellerID, customerID uuid.UUID, forUpdate bool) (*models.CreditLimit, error) {
	query := db.Where("seller_id = ? AND customer_id = ?", sellerID, customerID)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var limit models.CreditLimit
	if err := query.First(&limit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load credit limit: %w", err)
	}
	return &limit, nil
}

// PartyOf projects a user onto the shared party shape.
func PartyOf(user *models.User) checkout.Party {
	return checkout.Party{
		ID:          user.ID,
		DisplayName: user.Name(),
		Phone:       user.Phone,
		AvatarURL:   user.AvatarURL,
	}
}
