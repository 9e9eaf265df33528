// internal/handlers/admin.go
package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/services"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type AdminHandler struct {
	adminService        *services.AdminService
	verificationService *services.VerificationService
}

func NewAdminHandler(adminService *services.AdminService, verificationService *services.VerificationService) *AdminHandler {
	return &AdminHandler{
		adminService:        adminService,
		verificationService: verificationService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminUserFilter{
		PaginationParams: params,
	}

	if role := c.Query("role"); role != "" {
		userRole := models.UserRole(role)
		filter.Role = &userRole
	}

	users, total, err := h.adminService.GetUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(users, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	adminID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.adminService.UpdateUserStatus(c.Request.Context(), userID, adminID, &req); err != nil {
		respondError(c, err)
		return
	}

	var message string
	switch req.Status {
	case models.UserStatusSuspended:
		message = i18n.T(lang, i18n.KeyAdminUserSuspended)
	case models.UserStatusActive:
		message = i18n.T(lang, i18n.KeyAdminUserActivated)
	default:
		message = i18n.T(lang, i18n.KeyAdminActionSuccess)
	}

	utils.SuccessResponse(c, gin.H{
		"message": message,
	})
}

// GET /admin/transactions
func (h *AdminHandler) GetTransactions(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminTransactionFilter{
		PaginationParams: params,
	}

	if paymentType := c.Query("payment_type"); paymentType != "" {
		pType := models.PaymentType(paymentType)
		filter.PaymentType = &pType
	}

	if paymentMethod := c.Query("payment_method"); paymentMethod != "" {
		pMethod := models.PaymentMethod(paymentMethod)
		filter.PaymentMethod = &pMethod
	}

	if buyerIDStr := c.Query("buyer_id"); buyerIDStr != "" {
		if buyerID, err := uuid.Parse(buyerIDStr); err == nil {
			filter.BuyerID = &buyerID
		}
	}

	if sellerIDStr := c.Query("seller_id"); sellerIDStr != "" {
		if sellerID, err := uuid.Parse(sellerIDStr); err == nil {
			filter.SellerID = &sellerID
		}
	}

	if amountMinStr := c.Query("amount_min"); amountMinStr != "" {
		if amountMin, err := decimal.NewFromString(amountMinStr); err == nil {
			filter.AmountMin = &amountMin
		}
	}

	if amountMaxStr := c.Query("amount_max"); amountMaxStr != "" {
		if amountMax, err := decimal.NewFromString(amountMaxStr); err == nil {
			filter.AmountMax = &amountMax
		}
	}

	transactions, total, err := h.adminService.GetTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/transactions/:id/refund
func (h *AdminHandler) ProcessRefund(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	transactionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	adminID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.RefundRequest
	if !bindJSON(c, &req) {
		return
	}

	transaction, err := h.adminService.ProcessRefund(c.Request.Context(), transactionID, adminID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPaymentRefunded),
		"transaction": transaction,
	})
}

// GET /admin/verifications
func (h *AdminHandler) GetVerifications(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var sellerID *uuid.UUID
	if id, err := uuid.Parse(c.Query("seller_id")); err == nil {
		sellerID = &id
	}

	docs, total, err := h.verificationService.List(c.Request.Context(), sellerID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(docs, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	logs, total, err := h.adminService.GetAuditLogs(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /admin/analytics
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	startDateStr := c.Query("start_date")
	endDateStr := c.Query("end_date")
	if startDateStr == "" || endDateStr == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "start_date, end_date"), nil)
		return
	}

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "start_date"), nil)
		return
	}

	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "end_date"), nil)
		return
	}

	metrics := []string{"user_registrations", "credit_sales", "immediate_sales", "interest_earned", "revenue"}
	if metricsStr := c.Query("metrics"); metricsStr != "" {
		metrics = strings.Split(metricsStr, ",")
	}

	analytics, err := h.adminService.GetAnalytics(c.Request.Context(), startDate, endDate, metrics)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"analytics":  analytics,
		"start_date": startDate.Format("2006-01-02"),
		"end_date":   endDate.Format("2006-01-02"),
		"metrics":    metrics,
	})
}
