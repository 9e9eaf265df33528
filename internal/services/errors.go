// internal/services/errors.go
package services

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrVerificationNotFound    = errors.New("verification document not found")
	ErrForbidden               = errors.New("access denied")
	ErrInvalidAmounts          = errors.New("final amount must equal amount minus discount")
	ErrSellerMismatch          = errors.New("product does not belong to seller")
	ErrSelfPurchase            = errors.New("cannot purchase your own product")
	ErrProductUnavailable      = errors.New("product is not available")
	ErrCreditUnavailable       = errors.New("credit payment is not available for this seller")
	ErrCreditLimitExceeded     = errors.New("amount exceeds available credit")
	ErrLimitBelowUsed          = errors.New("credit limit cannot be lower than used credit")
	ErrCustomerRequired        = errors.New("customer is required")
	ErrAlreadyProcessed        = errors.New("transaction has already been processed")
	ErrPaymentInProgress       = errors.New("payment is already in progress")
	ErrUnsupportedMethod       = errors.New("payment method is not supported yet")
	ErrInvalidTransactionState = errors.New("transaction is not in a valid state for this operation")
	ErrAlreadyReviewed         = errors.New("verification document has already been reviewed")
	ErrAlreadyVerified         = errors.New("a verification document was already submitted for this transaction")
	ErrRejectionReasonRequired = errors.New("a rejection reason is required")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrUserExists              = errors.New("user with this email or username already exists")
	ErrAccountInactive         = errors.New("account is not active")
	ErrInvalidInput            = errors.New("invalid input")
)
