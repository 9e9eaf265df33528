// internal/services/transaction_service_test.go
package services

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/farmlink-backend/internal/config"
	"github.com/javajoker/farmlink-backend/internal/database"
	"github.com/javajoker/farmlink-backend/internal/events"
	"github.com/javajoker/farmlink-backend/internal/models"
)

// TransactionServiceTestSuite runs against a real PostgreSQL database and is
// skipped unless TEST_DATABASE_DSN is set.
type TransactionServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	service   *TransactionService
	publisher *events.Recorder

	seller  models.User
	buyer   models.User
	product models.Product
}

func (suite *TransactionServiceTestSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		suite.T().Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(db))
	suite.db = db
}

func (suite *TransactionServiceTestSuite) SetupTest() {
	suffix := uuid.NewString()[:8]

	suite.seller = models.User{Username: "coop_" + suffix, Email: "coop_" + suffix + "@example.com", Role: models.UserRoleBusiness, Status: models.UserStatusActive}
	suite.buyer = models.User{Username: "farmer_" + suffix, Email: "farmer_" + suffix + "@example.com", Role: models.UserRoleFarmer, Status: models.UserStatusActive}
	suite.Require().NoError(suite.seller.SetPassword("Secret123!"))
	suite.Require().NoError(suite.buyer.SetPassword("Secret123!"))
	suite.Require().NoError(suite.db.Create(&suite.seller).Error)
	suite.Require().NoError(suite.db.Create(&suite.buyer).Error)

	suite.product = models.Product{
		SellerID:  suite.seller.ID,
		Name:      "NPK fertilizer",
		Category:  "fertilizer",
		UnitPrice: decimal.NewFromInt(150000),
		Stock:     100,
		Status:    models.ProductStatusActive,
	}
	suite.Require().NoError(suite.db.Create(&suite.product).Error)

	suite.Require().NoError(suite.db.Create(&models.CreditTerms{
		SellerID:     suite.seller.ID,
		Enabled:      true,
		InterestRate: decimal.NewFromInt(12),
	}).Error)
	suite.Require().NoError(suite.db.Create(&models.CreditLimit{
		SellerID:    suite.seller.ID,
		CustomerID:  suite.buyer.ID,
		CreditLimit: decimal.NewFromInt(500000),
		UsedCredit:  decimal.Zero,
	}).Error)

	cfg := &config.Config{
		Redis:   config.RedisConfig{PaymentLockTTL: 30},
		Payment: config.PaymentConfig{Currency: "vnd"},
		Credit:  config.CreditConfig{MaxTermDays: 3650, MaxInterestRate: 100},
	}
	log, _ := test.NewNullLogger()
	suite.publisher = &events.Recorder{}
	suite.service = NewTransactionService(suite.db, cfg, TransactionDeps{
		Publisher: suite.publisher,
		Logger:    log,
	})
}

func (suite *TransactionServiceTestSuite) creditRequest(quantity int) *CreateTransactionRequest {
	amount := suite.product.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	days := 90
	return &CreateTransactionRequest{
		BuyerID:        suite.buyer.ID,
		SellerID:       suite.seller.ID,
		ProductID:      suite.product.ID,
		Quantity:       quantity,
		Amount:         amount,
		DiscountAmount: decimal.Zero,
		FinalAmount:    amount,
		PaymentType:    models.PaymentTypeCredit,
		PaymentMethod:  models.PaymentMethodCredit,
		CreditTermDays: &days,
		InterestRate:   decimal.NewFromInt(12),
	}
}

func (suite *TransactionServiceTestSuite) TestCreditPaymentConsumesCeiling() {
	ctx := context.Background()

	txn, err := suite.service.Create(ctx, suite.creditRequest(2))
	suite.Require().NoError(err)
	suite.Equal(models.TransactionStatusPending, txn.Status)
	suite.Equal("300000", txn.FinalAmount.String())
	suite.Equal("308876.71", txn.TotalPayable.String())

	pay := &ProcessPaymentRequest{TransactionID: txn.ID, BuyerID: suite.buyer.ID, Method: models.PaymentMethodCredit}
	suite.ErrorIs(suite.service.ProcessPayment(ctx, pay), ErrDocumentRequired)

	suite.Require().NoError(suite.db.Create(&models.VerificationDocument{
		OwnerID:       suite.buyer.ID,
		SellerID:      suite.seller.ID,
		TransactionID: txn.ID,
		DocumentType:  models.DocumentTypeFarmingCertificate,
		ImageURL:      "http://localhost/uploads/documents/cert.png",
	}).Error)

	suite.Require().NoError(suite.service.ProcessPayment(ctx, pay))
	suite.ErrorIs(suite.service.ProcessPayment(ctx, pay), ErrAlreadyProcessed)

	var limit models.CreditLimit
	suite.Require().NoError(suite.db.First(&limit, "seller_id = ? AND customer_id = ?", suite.seller.ID, suite.buyer.ID).Error)
	suite.Equal("300000", limit.UsedCredit.String())

	// 200000 left, so another 300000 is over the ceiling.
	_, err = suite.service.Create(ctx, suite.creditRequest(2))
	suite.ErrorIs(err, ErrCreditLimitExceeded)

	suite.Contains(suite.publisher.Types(), events.TypeTransactionCompleted)
}

func (suite *TransactionServiceTestSuite) TestBankTransferRejectsWrongAmount() {
	req := suite.creditRequest(1)
	req.PaymentType = models.PaymentTypeImmediate
	req.PaymentMethod = models.PaymentMethodBankTransfer
	req.CreditTermDays = nil
	req.Amount = decimal.NewFromInt(100000)
	req.FinalAmount = req.Amount

	_, err := suite.service.Create(context.Background(), req)
	suite.ErrorIs(err, ErrAmountMismatch)
}

func (suite *TransactionServiceTestSuite) TestBankTransferCompletes() {
	ctx := context.Background()

	req := suite.creditRequest(1)
	req.PaymentType = models.PaymentTypeImmediate
	req.PaymentMethod = models.PaymentMethodBankTransfer
	req.CreditTermDays = nil

	txn, err := suite.service.Create(ctx, req)
	suite.Require().NoError(err)

	err = suite.service.ProcessPayment(ctx, &ProcessPaymentRequest{
		TransactionID: txn.ID,
		BuyerID:       suite.buyer.ID,
		Method:        models.PaymentMethodBankTransfer,
		Reference:     txn.Code,
	})
	suite.Require().NoError(err)

	stored, err := suite.service.Get(ctx, txn.ID, suite.seller.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TransactionStatusCompleted, stored.Status)

	var product models.Product
	suite.Require().NoError(suite.db.First(&product, "id = ?", suite.product.ID).Error)
	suite.Equal(99, product.Stock)
}

func TestTransactionServiceSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
