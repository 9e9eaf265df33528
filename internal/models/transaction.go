// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	BaseModel
	Code             string            `json:"code" gorm:"size:32;uniqueIndex;not null"`
	BuyerID          uuid.UUID         `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID         uuid.UUID         `json:"seller_id" gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID         `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity         int               `json:"quantity" gorm:"default:1"`
	Amount           decimal.Decimal   `json:"amount" gorm:"type:decimal(15,2);not null"`
	DiscountAmount   decimal.Decimal   `json:"discount_amount" gorm:"type:decimal(15,2);not null;default:0"`
	FinalAmount      decimal.Decimal   `json:"final_amount" gorm:"type:decimal(15,2);not null"`
	PaymentType      PaymentType       `json:"payment_type" gorm:"type:varchar(20);not null;index"`
	PaymentMethod    PaymentMethod     `json:"payment_method" gorm:"type:varchar(20);not null"`
	CreditTermDays   *int              `json:"credit_term_days,omitempty"`
	InterestRate     decimal.Decimal   `json:"interest_rate" gorm:"type:decimal(7,4);default:0"`
	InterestAmount   decimal.Decimal   `json:"interest_amount" gorm:"type:decimal(15,2);default:0"`
	TotalPayable     decimal.Decimal   `json:"total_payable" gorm:"type:decimal(15,2);default:0"`
	DueAt            *time.Time        `json:"due_at,omitempty"`
	PaymentProvider  string            `json:"payment_provider,omitempty" gorm:"size:50"`
	PaymentReference string            `json:"payment_reference,omitempty" gorm:"size:255"`
	Status           TransactionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	FailureReason    string            `json:"failure_reason,omitempty" gorm:"type:text"`
	ProcessedAt      *time.Time        `json:"processed_at"`
	RefundedAt       *time.Time        `json:"refunded_at"`
	RefundReason     string            `json:"refund_reason,omitempty" gorm:"type:text"`

	// Relationships
	Buyer                User                  `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller               User                  `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Product              *Product              `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	VerificationDocument *VerificationDocument `json:"verification_document,omitempty" gorm:"foreignKey:TransactionID"`
}

func (t *Transaction) IsCredit() bool {
	return t.PaymentType == PaymentTypeCredit
}
