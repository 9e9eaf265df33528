// internal/models/credit.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditTerms holds a seller's default deferred-payment offer.
type CreditTerms struct {
	BaseModel
	SellerID        uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;uniqueIndex"`
	Enabled         bool            `json:"enabled" gorm:"not null;default:false"`
	DefaultTermDays int             `json:"default_term_days" gorm:"default:0"` // 0 = buyer chooses
	InterestRate    decimal.Decimal `json:"interest_rate" gorm:"type:decimal(7,4);default:0"`
}

// CreditLimit links a seller (business) to a customer and caps the customer's
// outstanding deferred balance with that seller.
type CreditLimit struct {
	BaseModel
	SellerID    uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;uniqueIndex:idx_credit_limit_pair"`
	CustomerID  uuid.UUID       `json:"customer_id" gorm:"type:uuid;not null;uniqueIndex:idx_credit_limit_pair"`
	CreditLimit decimal.Decimal `json:"credit_limit" gorm:"type:decimal(15,2);not null;check:credit_limit >= 0"`
	UsedCredit  decimal.Decimal `json:"used_credit" gorm:"type:decimal(15,2);not null;default:0;check:used_credit >= 0"`

	// Relationships
	Customer User `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (c *CreditLimit) AvailableCredit() decimal.Decimal {
	available := c.CreditLimit.Sub(c.UsedCredit)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}
