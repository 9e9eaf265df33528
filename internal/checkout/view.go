// internal/checkout/view.go
package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// View is a point-in-time snapshot of a flow for rendering.
type View struct {
	ID            uuid.UUID          `json:"id"`
	State         State              `json:"state"`
	Seller        Party              `json:"seller"`
	Product       Product            `json:"product"`
	Quantity      int                `json:"quantity"`
	PaymentType   PaymentType        `json:"payment_type"`
	PaymentMethod PaymentMethod      `json:"payment_method"`
	Quote         PricingQuote       `json:"quote"`
	Credit        CreditView         `json:"credit"`
	Document      *DocumentView      `json:"document,omitempty"`
	Transaction   *TransactionRecord `json:"transaction,omitempty"`
	Bank          *BankAccount       `json:"bank,omitempty"`
	QRPayload     string             `json:"qr_payload,omitempty"`
	Error         string             `json:"error,omitempty"`
	FieldErrors   map[string]string  `json:"field_errors,omitempty"`
	Submitting    bool               `json:"submitting"`
	Closed        bool               `json:"closed"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type CreditView struct {
	Available      bool            `json:"available"`
	TermFixed      bool            `json:"term_fixed"`
	TermDays       int             `json:"term_days"`
	TermOptions    []int           `json:"term_options,omitempty"`
	SelectedTerm   int             `json:"selected_term"`
	CustomTerm     string          `json:"custom_term,omitempty"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	InterestAmount decimal.Decimal `json:"interest_amount"`
	TotalPayable   decimal.Decimal `json:"total_payable"`
	Ceiling        *CreditCeiling  `json:"ceiling,omitempty"`
}

type DocumentView struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
	Preview  string `json:"preview"`
}
