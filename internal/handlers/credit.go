// internal/handlers/credit.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/services"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type CreditHandler struct {
	creditService *services.CreditService
}

func NewCreditHandler(creditService *services.CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// GET /credit/sellers/:seller_id
func (h *CreditHandler) GetSellerCredit(c *gin.Context) {
	sellerID, ok := pathUUID(c, "seller_id")
	if !ok {
		return
	}
	buyerID, ok := requireUser(c)
	if !ok {
		return
	}

	credit, err := h.creditService.GetSellerCredit(c.Request.Context(), buyerID, sellerID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"credit": credit,
	})
}

// PUT /credit/limits
func (h *CreditHandler) SetCreditLimit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	sellerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.SetCreditLimitRequest
	if !bindJSON(c, &req) {
		return
	}

	limit, err := h.creditService.SetCreditLimit(c.Request.Context(), sellerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCreditLimitUpdated),
		"limit":   limit,
	})
}

// GET /credit/customers
func (h *CreditHandler) GetCustomers(c *gin.Context) {
	sellerID, ok := requireUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	customers, total, err := h.creditService.ListCustomers(c.Request.Context(), sellerID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(customers, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /credit/terms
func (h *CreditHandler) UpdateTerms(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	sellerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateCreditTermsRequest
	if !bindJSON(c, &req) {
		return
	}

	terms, err := h.creditService.UpsertTerms(c.Request.Context(), sellerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCreditTermsUpdated),
		"terms":   terms,
	})
}

// GET /credit/interest?principal=&rate=&days=
func (h *CreditHandler) CalculateInterest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	principal, err := decimal.NewFromString(c.Query("principal"))
	if err != nil || principal.IsNegative() {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "principal"), nil)
		return
	}

	rate, err := decimal.NewFromString(c.DefaultQuery("rate", "0"))
	if err != nil || rate.IsNegative() {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "rate"), nil)
		return
	}

	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days < 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "days"), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"principal":     principal,
		"interest_rate": rate,
		"term_days":     days,
		"interest":      checkout.ComputeInterest(principal, rate, days),
		"total_payable": checkout.TotalPayable(principal, rate, days),
	})
}
