// internal/models/pricing.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingRule is a seller-defined discount, optionally scoped to one product,
// that may also override the seller's default credit term and interest.
type PricingRule struct {
	BaseModel
	SellerID        uuid.UUID        `json:"seller_id" gorm:"type:uuid;not null;index"`
	ProductID       *uuid.UUID       `json:"product_id" gorm:"type:uuid;index"`
	Name            string           `json:"name" gorm:"size:120"`
	DiscountPercent decimal.Decimal  `json:"discount_percent" gorm:"type:decimal(5,2);not null;default:0"`
	MinAmount       *decimal.Decimal `json:"min_amount,omitempty" gorm:"type:decimal(15,2)"`
	TermDays        *int             `json:"term_days,omitempty"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty" gorm:"type:decimal(7,4)"`
	IsActive        bool             `json:"is_active" gorm:"default:true"`
	ValidFrom       *time.Time       `json:"valid_from"`
	ValidUntil      *time.Time       `json:"valid_until"`
}
