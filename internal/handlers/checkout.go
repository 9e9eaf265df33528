// internal/handlers/checkout.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/services"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

type CheckoutHandler struct {
	checkoutService  *services.CheckoutService
	maxDocumentBytes int64
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type SelectPaymentRequest struct {
	PaymentType   checkout.PaymentType   `json:"payment_type" validate:"required,oneof=immediate credit"`
	PaymentMethod checkout.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=bank_transfer e_wallet credit_card credit"`
}

// SelectTermRequest picks a menu term, or term_days 0 with custom_term text.
type SelectTermRequest struct {
	TermDays   int     `json:"term_days" validate:"min=0"`
	CustomTerm *string `json:"custom_term,omitempty"`
}

func NewCheckoutHandler(checkoutService *services.CheckoutService, maxDocumentBytes int64) *CheckoutHandler {
	if maxDocumentBytes <= 0 {
		maxDocumentBytes = checkout.DefaultMaxDocumentBytes
	}
	return &CheckoutHandler{
		checkoutService:  checkoutService,
		maxDocumentBytes: maxDocumentBytes,
	}
}

// POST /checkout
func (h *CheckoutHandler) Start(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.StartCheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	flow, err := h.checkoutService.Start(c.Request.Context(), session, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, flow.View())
}

// GET /checkout/:id
func (h *CheckoutHandler) Get(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, flow.View())
}

// PUT /checkout/:id/quantity
func (h *CheckoutHandler) UpdateQuantity(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	h.respond(c, flow, flow.SetQuantity(c.Request.Context(), req.Quantity))
}

// PUT /checkout/:id/payment
func (h *CheckoutHandler) SelectPayment(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}

	var req SelectPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	h.respond(c, flow, flow.SelectPayment(req.PaymentType, req.PaymentMethod))
}

// PUT /checkout/:id/term
func (h *CheckoutHandler) SelectTerm(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}

	var req SelectTermRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.TermDays == checkout.TermCustom && req.CustomTerm != nil {
		h.respond(c, flow, flow.SetCustomTerm(*req.CustomTerm))
		return
	}
	h.respond(c, flow, flow.SelectTerm(req.TermDays))
}

// POST /checkout/:id/document
func (h *CheckoutHandler) AttachDocument(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	flow, ok := h.flow(c)
	if !ok {
		return
	}

	header, err := c.FormFile("document")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "document"), nil)
		return
	}
	if header.Size > h.maxDocumentBytes {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, checkout.CodeDocumentTooLarge, i18n.T(lang, i18n.KeyCheckoutDocumentLarge), nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxDocumentBytes+1))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	// Generic types are left to content sniffing.
	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}

	_, err = flow.AttachDocument(checkout.DocumentFile{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	h.respond(c, flow, err)
}

// DELETE /checkout/:id/document
func (h *CheckoutHandler) RemoveDocument(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	h.respond(c, flow, flow.RemoveDocument())
}

// POST /checkout/:id/proceed
func (h *CheckoutHandler) Proceed(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	h.respond(c, flow, flow.Proceed(c.Request.Context()))
}

// POST /checkout/:id/card
func (h *CheckoutHandler) SubmitCard(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}

	var card checkout.CardDetails
	if err := c.ShouldBindJSON(&card); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	h.respond(c, flow, flow.SubmitCard(c.Request.Context(), card))
}

// POST /checkout/:id/confirm-transfer
func (h *CheckoutHandler) ConfirmTransfer(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	h.respond(c, flow, flow.ConfirmTransfer(c.Request.Context()))
}

// POST /checkout/:id/back
func (h *CheckoutHandler) Back(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	h.respond(c, flow, flow.Back())
}

// POST /checkout/:id/retry
func (h *CheckoutHandler) Retry(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	h.respond(c, flow, flow.Retry())
}

// DELETE /checkout/:id
func (h *CheckoutHandler) Close(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.checkoutService.Close(id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CheckoutHandler) flow(c *gin.Context) (*checkout.Flow, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return nil, false
	}

	flow, err := h.checkoutService.Get(id, userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return flow, true
}

// respond renders the flow after an operation. Processing failures are part of
// the flow's state, so they are returned with the view rather than as errors.
func (h *CheckoutHandler) respond(c *gin.Context, flow *checkout.Flow, err error) {
	var processing *checkout.ProcessingError
	if err != nil && !errors.As(err, &processing) {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, flow.View())
}

func sessionFromContext(c *gin.Context) (checkout.Session, bool) {
	userID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		return checkout.Session{}, false
	}

	session := checkout.Session{UserID: userID}
	session.Username = c.GetString(utils.ContextKeyUsername)
	session.Role = c.GetString(utils.ContextKeyUserRole)
	session.DisplayName = c.GetString(utils.ContextKeyDisplayName)
	if session.DisplayName == "" {
		session.DisplayName = session.Username
	}
	return session, true
}
