// internal/services/gateway.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/models"
)

// StoreGateway serves checkout flows from the database-backed services.
type StoreGateway struct {
	transactions  *TransactionService
	pricing       *PricingService
	credit        *CreditService
	storage       *StorageService
	verifications *VerificationService
}

var _ checkout.Gateway = (*StoreGateway)(nil)

func NewStoreGateway(transactions *TransactionService, pricing *PricingService, credit *CreditService, storage *StorageService, verifications *VerificationService) *StoreGateway {
	return &StoreGateway{
		transactions:  transactions,
		pricing:       pricing,
		credit:        credit,
		storage:       storage,
		verifications: verifications,
	}
}

func (g *StoreGateway) CreateTransaction(ctx context.Context, req checkout.CreateTransactionRequest) (*checkout.TransactionRecord, error) {
	txn, err := g.transactions.Create(ctx, &CreateTransactionRequest{
		BuyerID:        req.BuyerID,
		SellerID:       req.SellerID,
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		Amount:         req.Amount,
		DiscountAmount: req.DiscountAmount,
		FinalAmount:    req.FinalAmount,
		PaymentType:    models.PaymentType(req.Type),
		PaymentMethod:  models.PaymentMethod(req.PaymentMethod),
		CreditTermDays: req.CreditTermDays,
		InterestRate:   req.InterestRate,
	})
	if err != nil {
		return nil, err
	}

	return &checkout.TransactionRecord{
		ID:            txn.ID,
		Code:          txn.Code,
		Status:        string(txn.Status),
		PaymentType:   checkout.PaymentType(txn.PaymentType),
		PaymentMethod: checkout.PaymentMethod(txn.PaymentMethod),
		FinalAmount:   txn.FinalAmount,
		CreatedAt:     txn.CreatedAt,
	}, nil
}

func (g *StoreGateway) ProcessPayment(ctx context.Context, req checkout.PaymentRequest) error {
	return g.transactions.ProcessPayment(ctx, &ProcessPaymentRequest{
		TransactionID: req.TransactionID,
		BuyerID:       req.BuyerID,
		Method:        models.PaymentMethod(req.Method),
		Provider:      req.Provider,
		Reference:     req.Reference,
		Card:          req.Card,
	})
}

func (g *StoreGateway) GetApplicablePricing(ctx context.Context, sellerID, productID uuid.UUID, amount decimal.Decimal) (*checkout.ApplicablePricing, error) {
	return g.pricing.GetApplicablePricing(ctx, sellerID, productID, amount)
}

func (g *StoreGateway) CheckCreditAvailability(ctx context.Context, buyerID, sellerID uuid.UUID, amount decimal.Decimal) (*checkout.CreditAvailability, error) {
	return g.credit.CheckAvailability(ctx, buyerID, sellerID, amount)
}

func (g *StoreGateway) GetCustomerCreditLimit(ctx context.Context, buyerID, sellerID uuid.UUID) (*checkout.CreditCeiling, error) {
	return g.credit.GetCustomerCreditLimit(ctx, buyerID, sellerID)
}

func (g *StoreGateway) UploadDocumentImage(ctx context.Context, file checkout.DocumentFile, buyerID uuid.UUID) (*checkout.StoredImage, error) {
	return g.storage.UploadDocumentImage(ctx, file, buyerID)
}

func (g *StoreGateway) DeleteDocumentImage(ctx context.Context, key string) error {
	return g.storage.DeleteFile(ctx, key)
}

func (g *StoreGateway) UploadVerificationDocument(ctx context.Context, record checkout.VerificationRecord) error {
	_, err := g.verifications.Record(ctx, record)
	return err
}
