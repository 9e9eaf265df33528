// internal/handlers/pricing.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/services"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type PricingHandler struct {
	pricingService *services.PricingService
}

func NewPricingHandler(pricingService *services.PricingService) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
	}
}

// GET /pricing/rules
func (h *PricingHandler) GetRules(c *gin.Context) {
	sellerID, ok := requireUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	rules, total, err := h.pricingService.ListRules(c.Request.Context(), sellerID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(rules, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /pricing/rules
func (h *PricingHandler) CreateRule(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	sellerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreatePricingRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.pricingService.CreateRule(c.Request.Context(), sellerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPricingRuleCreated),
		"rule":    rule,
	})
}

// GET /pricing/quote?product_id=&quantity=
func (h *PricingHandler) GetQuote(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "product_id"), nil)
		return
	}

	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "quantity"), nil)
		return
	}

	quote, err := h.pricingService.Quote(c.Request.Context(), &services.QuoteRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote": quote,
	})
}
