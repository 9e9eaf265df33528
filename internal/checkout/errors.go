// internal/checkout/errors.go
package checkout

import (
	"errors"
	"fmt"
)

// Error message constants used by the flow guards.
const (
	ErrMsgDocumentRequired    = "a farming certificate photo is required for credit payments"
	ErrMsgCustomTermRequired  = "enter the number of days for the custom term"
	ErrMsgCustomTermNotNumber = "custom term must be a whole number of days"
	ErrMsgCustomTermRange     = "custom term must be between %d and %d days"
	ErrMsgTermNotOffered      = "the selected term is not one of the offered options"
	ErrMsgTermFixed           = "the seller has fixed the credit term for this purchase"
	ErrMsgInvalidQuantity     = "quantity must be at least 1"
	ErrMsgMethodRequired      = "select a supported payment method"
	ErrMsgCreditUnavailable   = "deferred payment is not available from this seller"
	ErrMsgCardInvalid         = "card details are invalid"
	ErrMsgDocumentEmpty       = "the uploaded file is empty"
	ErrMsgDocumentNotImage    = "the uploaded file must be an image"
	ErrMsgDocumentTooLarge    = "the uploaded image exceeds the %d MB limit"
	ErrMsgSelfPurchase        = "you cannot buy your own product"
)

// Validation error codes. Handlers expose them in the error envelope.
const (
	CodeDocumentRequired  = "DOCUMENT_REQUIRED"
	CodeInvalidCustomTerm = "INVALID_CUSTOM_TERM"
	CodeInvalidTerm       = "INVALID_TERM"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidMethod     = "INVALID_PAYMENT_METHOD"
	CodeCreditUnavailable = "CREDIT_UNAVAILABLE"
	CodeInvalidCard       = "INVALID_CARD"
	CodeInvalidDocument   = "INVALID_DOCUMENT"
	CodeDocumentTooLarge  = "DOCUMENT_TOO_LARGE"
	CodeSelfPurchase      = "SELF_PURCHASE"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrFlowClosed         = errors.New("checkout flow is closed")
	ErrFlowNotFound       = errors.New("checkout flow not found")
	ErrFlowForbidden      = errors.New("checkout flow belongs to another user")
)

// ValidationError is a local guard failure. It never reaches the store.
type ValidationError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// TransitionError reports an operation that is not allowed in the current state.
type TransitionError struct {
	State  State
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while checkout is in state %q", e.Action, e.State)
}

// ProcessingError wraps a collaborator failure surfaced through the error state.
type ProcessingError struct {
	Step string
	Err  error
}

func (e *ProcessingError) Error() string {
	return e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
