// internal/services/transaction_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/config"
	"github.com/javajoker/farmlink-backend/internal/events"
	"github.com/javajoker/farmlink-backend/internal/metrics"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

var (
	ErrAmountMismatch   = errors.New("amount does not match the product price")
	ErrDocumentRequired = errors.New("a verification document is required before a credit payment")
	ErrCardRequired     = errors.New("card details are required")
	ErrTermRequired     = errors.New("credit term is required for credit payments")
	ErrDiscountTooLarge = errors.New("discount exceeds the seller's pricing")
)

type TransactionService struct {
	db        *gorm.DB
	config    *config.Config
	guard     PaymentGuard
	provider  PaymentProvider
	publisher events.Publisher
	notifier  *NotificationService
	pricing   *PricingService
	logger    logrus.FieldLogger
	now       func() time.Time
}

// TransactionDeps are the collaborators of a TransactionService.
type TransactionDeps struct {
	Guard     PaymentGuard
	Provider  PaymentProvider
	Publisher events.Publisher
	Notifier  *NotificationService
	Pricing   *PricingService
	Logger    logrus.FieldLogger
}

type CreateTransactionRequest struct {
	BuyerID        uuid.UUID            `validate:"required"`
	SellerID       uuid.UUID            `validate:"required"`
	ProductID      uuid.UUID            `validate:"required"`
	Quantity       int                  `validate:"min=1"`
	Amount         decimal.Decimal      `validate:"-"`
	DiscountAmount decimal.Decimal      `validate:"-"`
	FinalAmount    decimal.Decimal      `validate:"-"`
	PaymentType    models.PaymentType   `validate:"required,oneof=immediate credit"`
	PaymentMethod  models.PaymentMethod `validate:"required,oneof=bank_transfer e_wallet credit_card credit"`
	CreditTermDays *int                 `validate:"omitempty,min=1,max=3650"`
	InterestRate   decimal.Decimal      `validate:"-"`
}

type ProcessPaymentRequest struct {
	TransactionID uuid.UUID
	BuyerID       uuid.UUID
	Method        models.PaymentMethod
	Provider      string
	Reference     string
	Card          *checkout.CardDetails
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func NewTransactionService(db *gorm.DB, config *config.Config, deps TransactionDeps) *TransactionService {
	if deps.Guard == nil {
		deps.Guard = NewMemoryPaymentGuard(time.Duration(config.Redis.PaymentLockTTL) * time.Second)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Provider == nil {
		deps.Provider = NewSimulatedProvider(deps.Logger)
	}

	return &TransactionService{
		db:        db,
		config:    config,
		guard:     deps.Guard,
		provider:  deps.Provider,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		pricing:   deps.Pricing,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Create inserts a pending transaction after checking the amounts against the
// catalog and, for credit, the buyer's ceiling with the seller.
func (s *TransactionService) Create(ctx context.Context, req *CreateTransactionRequest) (*models.Transaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := checkAmounts(req); err != nil {
		return nil, err
	}
	if req.BuyerID == req.SellerID {
		return nil, ErrSelfPurchase
	}

	isCredit := req.PaymentType == models.PaymentTypeCredit
	if isCredit != (req.PaymentMethod == models.PaymentMethodCredit) {
		return nil, fmt.Errorf("%w: payment method %s does not match payment type %s", ErrInvalidInput, req.PaymentMethod, req.PaymentType)
	}
	if isCredit && req.CreditTermDays == nil {
		return nil, ErrTermRequired
	}

	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if product.SellerID != req.SellerID {
		return nil, ErrSellerMismatch
	}
	if product.Status != models.ProductStatusActive || product.Stock < req.Quantity {
		return nil, ErrProductUnavailable
	}
	if !product.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).Equal(req.Amount) {
		return nil, ErrAmountMismatch
	}
	if err := s.checkDiscount(ctx, &product, req); err != nil {
		return nil, err
	}

	now := s.now()
	code, err := utils.GenerateTransactionCode(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction code: %w", err)
	}

	txn := &models.Transaction{
		Code:           code,
		BuyerID:        req.BuyerID,
		SellerID:       req.SellerID,
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		Amount:         req.Amount,
		DiscountAmount: req.DiscountAmount,
		FinalAmount:    req.FinalAmount,
		PaymentType:    req.PaymentType,
		PaymentMethod:  req.PaymentMethod,
		InterestRate:   decimal.Zero,
		InterestAmount: decimal.Zero,
		TotalPayable:   req.FinalAmount,
		Status:         models.TransactionStatusPending,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if isCredit {
			if err := s.applyCreditTerms(tx, txn, req); err != nil {
				return err
			}
		}
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransactionsCreated.WithLabelValues(string(txn.PaymentType)).Inc()
	s.publish(ctx, events.TypeTransactionCreated, txn)

	s.logger.WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"code":           txn.Code,
		"payment_type":   txn.PaymentType,
		"payment_method": txn.PaymentMethod,
		"final_amount":   txn.FinalAmount.String(),
	}).Info("Transaction created")

	return txn, nil
}

// ProcessPayment moves a pending transaction to completed or failed. Only one
// attempt per transaction runs at a time.
func (s *TransactionService) ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) error {
	if req.Method == models.PaymentMethodEWallet {
		return ErrUnsupportedMethod
	}

	key := req.TransactionID.String()
	acquired, err := s.guard.Acquire(ctx, key)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrPaymentInProgress
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.WithError(err).WithField("transaction_id", key).Warn("Failed to release payment lock")
		}
	}()

	db := s.db.WithContext(ctx)

	var txn models.Transaction
	if err := db.First(&txn, "id = ?", req.TransactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	if txn.BuyerID != req.BuyerID {
		return ErrForbidden
	}
	if txn.Status != models.TransactionStatusPending {
		return ErrAlreadyProcessed
	}
	if txn.PaymentMethod != req.Method {
		return ErrInvalidTransactionState
	}

	if txn.IsCredit() {
		var documents int64
		if err := db.Model(&models.VerificationDocument{}).Where("transaction_id = ?", txn.ID).Count(&documents).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if documents == 0 {
			return ErrDocumentRequired
		}
	}

	result := db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, models.TransactionStatusPending).
		Update("status", models.TransactionStatusProcessing)
	if result.Error != nil {
		return fmt.Errorf("failed to mark transaction processing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}

	started := time.Now()
	txn.PaymentProvider = req.Provider
	txn.PaymentReference = req.Reference

	switch txn.PaymentMethod {
	case models.PaymentMethodCredit:
		err = s.settleCredit(ctx, &txn)
	case models.PaymentMethodCreditCard:
		err = s.chargeCard(ctx, &txn, req.Card)
		if err == nil {
			err = s.markCompleted(db, &txn)
		}
	case models.PaymentMethodBankTransfer:
		err = s.markCompleted(db, &txn)
	default:
		err = ErrUnsupportedMethod
	}

	metrics.PaymentProcessingLatency.WithLabelValues(string(txn.PaymentMethod)).Observe(time.Since(started).Seconds())

	if err != nil {
		s.markFailed(ctx, &txn, err)
		return err
	}

	metrics.TransactionsCompleted.WithLabelValues(string(txn.PaymentMethod)).Inc()
	s.publish(ctx, events.TypeTransactionCompleted, &txn)
	s.afterCommit(ctx, txn.ID, func(ctx context.Context, full *models.Transaction) {
		s.notifier.NotifyTransactionCompleted(ctx, full)
	})

	s.logger.WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"payment_method": txn.PaymentMethod,
		"reference":      txn.PaymentReference,
	}).Info("Payment processed")
	return nil
}

// Get returns a transaction visible to userID as buyer or seller.
func (s *TransactionService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("VerificationDocument").
		First(&txn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if txn.BuyerID != userID && txn.SellerID != userID {
		return nil, ErrForbidden
	}

	return &txn, nil
}

func (s *TransactionService) History(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("buyer_id = ? OR seller_id = ?", userID, userID)

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	query = utils.ApplyDateRange(query, "created_at", params)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "final_amount", "status"})
	query = utils.ApplyPagination(query, params)

	var transactions []models.Transaction
	if err := query.Preload("Product").Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

// Refund reverses a completed transaction. Credit refunds give the used
// credit back; card refunds go through the provider.
func (s *TransactionService) Refund(ctx context.Context, id uuid.UUID, req *RefundRequest) (*models.Transaction, error) {
	db := s.db.WithContext(ctx)

	var txn models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}
		if txn.Status != models.TransactionStatusCompleted {
			return ErrInvalidTransactionState
		}

		switch txn.PaymentMethod {
		case models.PaymentMethodCredit:
			if err := releaseCredit(tx, txn.SellerID, txn.BuyerID, txn.FinalAmount); err != nil {
				return fmt.Errorf("failed to release credit: %w", err)
			}
		case models.PaymentMethodCreditCard:
			if txn.PaymentReference != "" {
				if err := s.provider.Refund(ctx, txn.PaymentReference, txn.FinalAmount, s.config.Payment.Currency); err != nil {
					return err
				}
			}
		}

		now := s.now()
		txn.Status = models.TransactionStatusRefunded
		txn.RefundedAt = &now
		txn.RefundReason = req.Reason
		return tx.Model(&txn).Updates(map[string]interface{}{
			"status":        txn.Status,
			"refunded_at":   now,
			"refund_reason": req.Reason,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeTransactionRefunded, &txn)
	s.afterCommit(ctx, txn.ID, func(ctx context.Context, full *models.Transaction) {
		s.notifier.NotifyRefund(ctx, full)
	})

	return &txn, nil
}

// CancelStaleCredit cancels credit transactions still pending at cutoff that
// never received a verification document.
func (s *TransactionService) CancelStaleCredit(ctx context.Context, cutoff time.Time) (int, error) {
	var stale []models.Transaction
	err := s.db.WithContext(ctx).
		Where("status = ? AND payment_type = ? AND created_at < ?",
			models.TransactionStatusPending, models.PaymentTypeCredit, cutoff).
		Where("NOT EXISTS (SELECT 1 FROM verification_documents vd WHERE vd.transaction_id = transactions.id AND vd.deleted_at IS NULL)").
		Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find stale credit transactions: %w", err)
	}

	cancelled := 0
	for i := range stale {
		txn := &stale[i]
		result := s.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":         models.TransactionStatusCancelled,
				"failure_reason": "verification document was never submitted",
			})
		if result.Error != nil {
			s.logger.WithError(result.Error).WithField("transaction_id", txn.ID).Error("Failed to cancel stale credit transaction")
			continue
		}
		if result.RowsAffected == 0 {
			continue
		}

		txn.Status = models.TransactionStatusCancelled
		cancelled++
		metrics.TransactionsCancelled.Inc()
		s.publish(ctx, events.TypeTransactionCancelled, txn)
		s.logger.WithFields(logrus.Fields{
			"transaction_id": txn.ID,
			"code":           txn.Code,
			"created_at":     txn.CreatedAt,
		}).Info("Cancelled stale credit transaction")
	}

	return cancelled, nil
}

func (s *TransactionService) applyCreditTerms(tx *gorm.DB, txn *models.Transaction, req *CreateTransactionRequest) error {
	if req.InterestRate.IsNegative() || req.InterestRate.GreaterThan(decimal.NewFromFloat(s.config.Credit.MaxInterestRate)) {
		return fmt.Errorf("%w: interest rate must be between 0 and %.2f", ErrInvalidInput, s.config.Credit.MaxInterestRate)
	}

	terms, err := findCreditTerms(tx, req.SellerID)
	if err != nil {
		return err
	}
	limit, err := findCreditLimit(tx, req.SellerID, req.BuyerID, true)
	if err != nil {
		return err
	}

	if limit == nil && (terms == nil || !terms.Enabled) {
		return ErrCreditUnavailable
	}
	if limit != nil && req.FinalAmount.GreaterThan(limit.AvailableCredit()) {
		return ErrCreditLimitExceeded
	}

	days := *req.CreditTermDays
	txn.CreditTermDays = &days
	txn.InterestRate = req.InterestRate
	txn.InterestAmount = checkout.ComputeInterest(req.FinalAmount, req.InterestRate, days)
	txn.TotalPayable = req.FinalAmount.Add(txn.InterestAmount)
	return nil
}

// settleCredit books the ceiling and completes the transaction atomically.
func (s *TransactionService) settleCredit(ctx context.Context, txn *models.Transaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := consumeCredit(tx, txn.SellerID, txn.BuyerID, txn.FinalAmount); err != nil {
			return err
		}
		if txn.CreditTermDays != nil {
			due := s.now().AddDate(0, 0, *txn.CreditTermDays)
			txn.DueAt = &due
		}
		return s.markCompleted(tx, txn)
	})
}

func (s *TransactionService) chargeCard(ctx context.Context, txn *models.Transaction, card *checkout.CardDetails) error {
	if card == nil {
		return ErrCardRequired
	}

	reference, err := s.provider.Charge(ctx, ChargeRequest{
		TransactionID:   txn.ID,
		TransactionCode: txn.Code,
		BuyerID:         txn.BuyerID,
		Amount:          txn.FinalAmount,
		Currency:        s.config.Payment.Currency,
		Card:            *card,
	})
	if reference != "" {
		txn.PaymentReference = reference
	}
	return err
}

func (s *TransactionService) markCompleted(tx *gorm.DB, txn *models.Transaction) error {
	now := s.now()
	txn.Status = models.TransactionStatusCompleted
	txn.ProcessedAt = &now

	updates := map[string]interface{}{
		"status":            txn.Status,
		"processed_at":      now,
		"payment_provider":  txn.PaymentProvider,
		"payment_reference": txn.PaymentReference,
	}
	if txn.DueAt != nil {
		updates["due_at"] = *txn.DueAt
	}
	if err := tx.Model(txn).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to complete transaction: %w", err)
	}

	err := tx.Model(&models.Product{}).Where("id = ?", txn.ProductID).Updates(map[string]interface{}{
		"stock":       gorm.Expr("GREATEST(stock - ?, 0)", txn.Quantity),
		"sales_count": gorm.Expr("sales_count + ?", txn.Quantity),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	return nil
}

func (s *TransactionService) markFailed(ctx context.Context, txn *models.Transaction, cause error) {
	txn.Status = models.TransactionStatusFailed
	txn.FailureReason = cause.Error()

	err := s.db.WithContext(context.WithoutCancel(ctx)).Model(txn).Updates(map[string]interface{}{
		"status":            txn.Status,
		"failure_reason":    txn.FailureReason,
		"payment_reference": txn.PaymentReference,
	}).Error
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", txn.ID).Error("Failed to mark transaction failed")
	}

	metrics.TransactionsFailed.WithLabelValues(string(txn.PaymentMethod)).Inc()
	s.publish(ctx, events.TypeTransactionFailed, txn)
	s.afterCommit(ctx, txn.ID, func(ctx context.Context, full *models.Transaction) {
		s.notifier.NotifyPaymentFailed(ctx, full)
	})

	s.logger.WithError(cause).WithField("transaction_id", txn.ID).Warn("Payment failed")
}

// checkDiscount rejects a discount larger than the seller's rule grants.
func (s *TransactionService) checkDiscount(ctx context.Context, product *models.Product, req *CreateTransactionRequest) error {
	if req.DiscountAmount.IsZero() {
		return nil
	}
	if s.pricing == nil {
		return ErrDiscountTooLarge
	}

	pricing, err := s.pricing.GetApplicablePricing(ctx, product.SellerID, product.ID, req.Amount)
	if err != nil {
		return fmt.Errorf("failed to verify discount: %w", err)
	}
	if pricing == nil {
		return ErrDiscountTooLarge
	}

	allowed := checkout.ApplyPricing(req.Amount, *pricing)
	if req.DiscountAmount.GreaterThan(allowed.DiscountAmount) {
		return ErrDiscountTooLarge
	}
	return nil
}

// afterCommit reloads the transaction with its parties and runs fn in the
// background.
func (s *TransactionService) afterCommit(ctx context.Context, id uuid.UUID, fn func(context.Context, *models.Transaction)) {
	if s.notifier == nil {
		return
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		var full models.Transaction
		err := s.db.WithContext(bg).
			Preload("Buyer").Preload("Seller").Preload("Product").
			First(&full, "id = ?", id).Error
		if err != nil {
			s.logger.WithError(err).WithField("transaction_id", id).Warn("Failed to load transaction for notification")
			return
		}
		fn(bg, &full)
	}()
}

func (s *TransactionService) publish(ctx context.Context, eventType string, txn *models.Transaction) {
	event := events.New(eventType, txn.ID.String(), TransactionEvent{
		TransactionID: txn.ID,
		Code:          txn.Code,
		BuyerID:       txn.BuyerID,
		SellerID:      txn.SellerID,
		ProductID:     txn.ProductID,
		PaymentType:   txn.PaymentType,
		PaymentMethod: txn.PaymentMethod,
		FinalAmount:   txn.FinalAmount,
		TotalPayable:  txn.TotalPayable,
		Status:        txn.Status,
		Reason:        txn.FailureReason,
	})
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":     eventType,
			"transaction_id": txn.ID,
		}).Warn("Failed to publish transaction event")
	}
}

// TransactionEvent is the payload of transaction.* events.
type TransactionEvent struct {
	TransactionID uuid.UUID                `json:"transaction_id"`
	Code          string                   `json:"code"`
	BuyerID       uuid.UUID                `json:"buyer_id"`
	SellerID      uuid.UUID                `json:"seller_id"`
	ProductID     uuid.UUID                `json:"product_id"`
	PaymentType   models.PaymentType       `json:"payment_type"`
	PaymentMethod models.PaymentMethod     `json:"payment_method"`
	FinalAmount   decimal.Decimal          `json:"final_amount"`
	TotalPayable  decimal.Decimal          `json:"total_payable"`
	Status        models.TransactionStatus `json:"status"`
	Reason        string                   `json:"reason,omitempty"`
}

func checkAmounts(req *CreateTransactionRequest) error {
	if !req.Amount.IsPositive() || req.DiscountAmount.IsNegative() || req.FinalAmount.IsNegative() {
		return ErrInvalidAmounts
	}
	if !req.Amount.Sub(req.DiscountAmount).Equal(req.FinalAmount) {
		return ErrInvalidAmounts
	}
	return nil
}
