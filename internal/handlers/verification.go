// internal/handlers/verification.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/services"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
	adminService        *services.AdminService
}

func NewVerificationHandler(verificationService *services.VerificationService, adminService *services.AdminService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		adminService:        adminService,
	}
}

// GET /verifications
// Sellers see documents addressed to them. Admins see everything, optionally
// narrowed with seller_id.
func (h *VerificationHandler) GetVerifications(c *gin.Context) {
	reviewer, ok := reviewerFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	sellerID := &reviewer.ID
	if reviewer.IsAdmin {
		sellerID = nil
		if id, err := uuid.Parse(c.Query("seller_id")); err == nil {
			sellerID = &id
		}
	}

	docs, total, err := h.verificationService.List(c.Request.Context(), sellerID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(docs, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /verifications/:id
func (h *VerificationHandler) GetVerification(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	reviewer, ok := reviewerFromContext(c)
	if !ok {
		return
	}

	doc, err := h.verificationService.Get(c.Request.Context(), id, reviewer)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"verification": doc,
	})
}

// PUT /verifications/:id/approve
func (h *VerificationHandler) Approve(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	reviewer, ok := reviewerFromContext(c)
	if !ok {
		return
	}

	doc, err := h.verificationService.Approve(c.Request.Context(), id, reviewer)
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordReview(c, reviewer, doc)

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyVerificationApproved),
		"verification": doc,
	})
}

// PUT /verifications/:id/reject
func (h *VerificationHandler) Reject(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	reviewer, ok := reviewerFromContext(c)
	if !ok {
		return
	}

	var req services.RejectVerificationRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.verificationService.Reject(c.Request.Context(), id, reviewer, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordReview(c, reviewer, doc)

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyVerificationRejected),
		"verification": doc,
	})
}

func (h *VerificationHandler) recordReview(c *gin.Context, reviewer services.Reviewer, doc *models.VerificationDocument) {
	if reviewer.IsAdmin && h.adminService != nil {
		h.adminService.RecordReview(c.Request.Context(), reviewer.ID, doc)
	}
}

func reviewerFromContext(c *gin.Context) (services.Reviewer, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return services.Reviewer{}, false
	}
	role, _ := utils.GetUserRoleFromContext(c)
	return services.Reviewer{
		ID:      userID,
		IsAdmin: role == string(models.UserRoleAdmin),
	}, true
}
