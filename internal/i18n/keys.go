// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess           = "success"
	KeyError             = "error"
	KeyInternalError     = "error.internal"
	KeyRateLimited       = "error.rate_limited"
	KeyUnsupportedUpload = "upload.unsupported_type"
	KeyUploadSuccess     = "upload.success"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthAccountSuspended   = "auth.account_suspended"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Users
	KeyUserNotFound = "user.not_found"
	KeyUserUpdated  = "user.updated"

	// Products
	KeyProductCreated    = "product.created"
	KeyProductNotFound   = "product.not_found"
	KeyProductOutOfStock = "product.out_of_stock"
	KeyProductUpdated    = "product.updated"
	KeyProductDeleted    = "product.deleted"

	// Checkout
	KeyCheckoutNotFound      = "checkout.not_found"
	KeyCheckoutForbidden     = "checkout.forbidden"
	KeyCheckoutClosed        = "checkout.closed"
	KeyCheckoutInFlight      = "checkout.in_flight"
	KeyCheckoutInvalidState  = "checkout.invalid_state"
	KeyCheckoutDocumentLarge = "checkout.document_too_large"

	// Payments
	KeyPaymentSuccess       = "payment.success"
	KeyPaymentFailed        = "payment.failed"
	KeyPaymentRefunded      = "payment.refunded"
	KeyPaymentNotFound      = "payment.not_found"
	KeyPaymentInvalidAmount = "payment.invalid_amount"
	KeyPaymentAlreadyPaid   = "payment.already_processed"
	KeyPaymentInProgress    = "payment.in_progress"

	// Credit
	KeyCreditLimitExceeded = "credit.limit_exceeded"
	KeyCreditLimitUpdated  = "credit.limit_updated"
	KeyCreditTermsUpdated  = "credit.terms_updated"
	KeyCreditCustomerReq   = "credit.customer_required"
	KeyCreditUnavailable   = "credit.unavailable"

	// Pricing
	KeyPricingRuleCreated = "pricing.rule_created"

	// Verification
	KeyVerificationNotFound = "verification.not_found"
	KeyVerificationApproved = "verification.approved"
	KeyVerificationRejected = "verification.rejected"
	KeyVerificationReviewed = "verification.already_reviewed"
	KeyVerificationExists   = "verification.exists"

	// Admin
	KeyAdminAccessDenied  = "admin.access_denied"
	KeySellerAccessOnly   = "admin.seller_only"
	KeyAdminUserSuspended = "admin.user_suspended"
	KeyAdminUserActivated = "admin.user_activated"
	KeyAdminActionSuccess = "admin.action_success"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
