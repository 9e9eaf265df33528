// internal/checkout/types.go
package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session identifies the authenticated buyer driving a flow.
type Session struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
}

// Party is the minimal shape shared by buyer, seller, customer and business lookups.
type Party struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

// Product is the read-only view of a catalog item being purchased.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	SellerID  uuid.UUID       `json:"seller_id"`
}

type PaymentType string

const (
	PaymentTypeImmediate PaymentType = "immediate"
	PaymentTypeCredit    PaymentType = "credit"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodCredit       PaymentMethod = "credit"
)

// PricingQuote is a transient projection of the seller's pricing for one amount.
type PricingQuote struct {
	BaseAmount      decimal.Decimal  `json:"base_amount"`
	FinalAmount     decimal.Decimal  `json:"final_amount"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	TermDays        *int             `json:"term_days,omitempty"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty"`
}

// ApplicablePricing is what the store returns for a (seller, product, amount) lookup.
type ApplicablePricing struct {
	DiscountPercent decimal.Decimal
	TermDays        *int
	InterestRate    *decimal.Decimal
}

// CreditAvailability is the store's answer to "may this buyer defer this amount".
type CreditAvailability struct {
	Available    bool
	TermDays     int
	InterestRate decimal.Decimal
}

// CreditEligibility is advisory: it pre-fills the flow, the store enforces the ceiling.
type CreditEligibility struct {
	Available    bool            `json:"available"`
	TermDays     int             `json:"term_days"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Ceiling      *CreditCeiling  `json:"ceiling,omitempty"`
}

// CreditCeiling is a snapshot of the seller-defined limit for a buyer.
type CreditCeiling struct {
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	UsedCredit      decimal.Decimal `json:"used_credit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

// CardDetails is the raw card capture. It is never persisted by the flow.
type CardDetails struct {
	Number     string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	HolderName string `json:"holder_name"`
}

type CreateTransactionRequest struct {
	BuyerID        uuid.UUID
	SellerID       uuid.UUID
	ProductID      uuid.UUID
	Quantity       int
	Amount         decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	Type           PaymentType
	PaymentMethod  PaymentMethod
	CreditTermDays *int
	InterestRate   decimal.Decimal
}

// TransactionRecord mirrors the store's transaction after creation.
type TransactionRecord struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Status        string          `json:"status"`
	PaymentType   PaymentType     `json:"payment_type"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

type PaymentRequest struct {
	TransactionID uuid.UUID
	BuyerID       uuid.UUID
	Method        PaymentMethod
	Provider      string
	Reference     string
	Card          *CardDetails
}

// DocumentFile is an uploaded file as received from the client.
type DocumentFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// StoredImage locates an uploaded certificate. Key addresses the object in
// storage; URL is the link stored alongside it.
type StoredImage struct {
	Key string
	URL string
}

type VerificationRecord struct {
	OwnerID       uuid.UUID
	SellerID      uuid.UUID
	TransactionID uuid.UUID
	DocumentType  string
	ImageKey      string
	ImageURL      string
}

// Completion is emitted once a flow reaches success and the completion delay elapsed.
type Completion struct {
	FlowID          uuid.UUID       `json:"flow_id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	TransactionCode string          `json:"transaction_code"`
	PaymentType     PaymentType     `json:"payment_type"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	CompletedAt     time.Time       `json:"completed_at"`
}
