// internal/checkout/gateway.go
package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway is the set of record-store calls a checkout flow depends on.
type Gateway interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*TransactionRecord, error)
	ProcessPayment(ctx context.Context, req PaymentRequest) error
	GetApplicablePricing(ctx context.Context, sellerID, productID uuid.UUID, amount decimal.Decimal) (*ApplicablePricing, error)
	CheckCreditAvailability(ctx context.Context, buyerID, sellerID uuid.UUID, amount decimal.Decimal) (*CreditAvailability, error)
	// GetCustomerCreditLimit returns nil without error when the seller set no limit.
	GetCustomerCreditLimit(ctx context.Context, buyerID, sellerID uuid.UUID) (*CreditCeiling, error)
	UploadDocumentImage(ctx context.Context, file DocumentFile, buyerID uuid.UUID) (*StoredImage, error)
	DeleteDocumentImage(ctx context.Context, key string) error
	UploadVerificationDocument(ctx context.Context, record VerificationRecord) error
}
