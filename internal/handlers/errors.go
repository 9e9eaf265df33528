// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/services"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

// respondError maps service and checkout errors onto API responses.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if verr, ok := checkout.AsValidationError(err); ok {
		utils.ErrorResponse(c, http.StatusBadRequest, verr.Code, verr.Message, utils.FieldErrors(verr.Code, verr.Fields))
		return
	}

	var transition *checkout.TransitionError
	switch {
	case errors.As(err, &transition):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_STATE", i18n.T(lang, i18n.KeyCheckoutInvalidState), gin.H{
			"state":  transition.State,
			"action": transition.Action,
		})

	case errors.Is(err, checkout.ErrFlowNotFound):
		utils.NotFoundResponse(c, "checkout")
	case errors.Is(err, checkout.ErrFlowForbidden):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyCheckoutForbidden))
	case errors.Is(err, checkout.ErrFlowClosed):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyCheckoutClosed))
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyCheckoutInFlight))

	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.NotFoundResponse(c, "payment")
	case errors.Is(err, services.ErrVerificationNotFound):
		utils.NotFoundResponse(c, "verification")

	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrAccountInactive):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthAccountSuspended))
	case errors.Is(err, services.ErrUserExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAuthUserExists))

	case errors.Is(err, services.ErrProductUnavailable):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProductOutOfStock))
	case errors.Is(err, services.ErrCreditLimitExceeded):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "CREDIT_LIMIT_EXCEEDED", i18n.T(lang, i18n.KeyCreditLimitExceeded), nil)
	case errors.Is(err, services.ErrCreditUnavailable):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, checkout.CodeCreditUnavailable, i18n.T(lang, i18n.KeyCreditUnavailable), nil)
	case errors.Is(err, services.ErrAlreadyProcessed):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPaymentAlreadyPaid))
	case errors.Is(err, services.ErrPaymentInProgress):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPaymentInProgress))
	case errors.Is(err, services.ErrInvalidTransactionState):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrAlreadyReviewed):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyVerificationReviewed))
	case errors.Is(err, services.ErrAlreadyVerified):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyVerificationExists))

	case errors.Is(err, services.ErrFileTooLarge):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, checkout.CodeDocumentTooLarge, i18n.T(lang, i18n.KeyCheckoutDocumentLarge), nil)
	case errors.Is(err, services.ErrUnsupportedFileType):
		utils.ErrorResponse(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", i18n.T(lang, i18n.KeyUnsupportedUpload), nil)

	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidAmounts),
		errors.Is(err, services.ErrAmountMismatch),
		errors.Is(err, services.ErrDiscountTooLarge),
		errors.Is(err, services.ErrSellerMismatch),
		errors.Is(err, services.ErrSelfPurchase),
		errors.Is(err, services.ErrCustomerRequired),
		errors.Is(err, services.ErrLimitBelowUsed),
		errors.Is(err, services.ErrRejectionReasonRequired),
		errors.Is(err, services.ErrUnsupportedMethod),
		errors.Is(err, services.ErrCardRequired),
		errors.Is(err, services.ErrTermRequired),
		errors.Is(err, services.ErrDocumentRequired):
		utils.BadRequestResponse(c, err.Error(), nil)

	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyInternalError))
	}
}

// bindJSON binds and validates a request body, writing the error response
// itself when it fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// requireUser returns the authenticated user's id.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}
