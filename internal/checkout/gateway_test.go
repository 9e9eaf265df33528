// internal/checkout/gateway_test.go
package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// pngBytes is the smallest payload mimetype recognises as image/png.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

type fakeGateway struct {
	mu sync.Mutex

	pricing         *ApplicablePricing
	pricingErr      error
	availability    *CreditAvailability
	availabilityErr error
	ceiling         *CreditCeiling
	ceilingErr      error

	createErr  error
	processErr error
	uploadErr  error
	recordErr  error
	deleteErr  error

	// createGate blocks CreateTransaction until closed when set.
	createGate chan struct{}

	created  []CreateTransactionRequest
	payments []PaymentRequest
	uploads  []DocumentFile
	records  []VerificationRecord
	deleted  []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{}
}

func (g *fakeGateway) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*TransactionRecord, error) {
	if g.createGate != nil {
		<-g.createGate
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.created = append(g.created, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &TransactionRecord{
		ID:            uuid.New(),
		Code:          fmt.Sprintf("TXN-20260101-%06d", len(g.created)),
		Status:        "pending",
		PaymentType:   req.Type,
		PaymentMethod: req.PaymentMethod,
		FinalAmount:   req.FinalAmount,
	}, nil
}

func (g *fakeGateway) ProcessPayment(ctx context.Context, req PaymentRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.payments = append(g.payments, req)
	return g.processErr
}

func (g *fakeGateway) GetApplicablePricing(ctx context.Context, sellerID, productID uuid.UUID, amount decimal.Decimal) (*ApplicablePricing, error) {
	return g.pricing, g.pricingErr
}

func (g *fakeGateway) CheckCreditAvailability(ctx context.Context, buyerID, sellerID uuid.UUID, amount decimal.Decimal) (*CreditAvailability, error) {
	return g.availability, g.availabilityErr
}

func (g *fakeGateway) GetCustomerCreditLimit(ctx context.Context, buyerID, sellerID uuid.UUID) (*CreditCeiling, error) {
	return g.ceiling, g.ceilingErr
}

func (g *fakeGateway) UploadDocumentImage(ctx context.Context, file DocumentFile, buyerID uuid.UUID) (*StoredImage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.uploads = append(g.uploads, file)
	if g.uploadErr != nil {
		return nil, g.uploadErr
	}
	key := "verifications/" + file.Name
	return &StoredImage{Key: key, URL: "https://cdn.example.com/" + key}, nil
}

func (g *fakeGateway) DeleteDocumentImage(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.deleted = append(g.deleted, key)
	return g.deleteErr
}

func (g *fakeGateway) UploadVerificationDocument(ctx context.Context, record VerificationRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.records = append(g.records, record)
	return g.recordErr
}

func (g *fakeGateway) createdCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.created)
}

func (g *fakeGateway) paymentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.payments)
}
