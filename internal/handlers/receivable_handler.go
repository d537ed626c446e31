package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "platita/internal/errors"
	"platita/internal/services"
)

// ReceivableHandler handles receivable-related requests.
type ReceivableHandler struct {
	receivableService services.ReceivableServicer
	auditService      services.AuditServicer
}

// NewReceivableHandler creates a new ReceivableHandler.
func NewReceivableHandler(receivableService services.ReceivableServicer, auditService services.AuditServicer) *ReceivableHandler {
	return &ReceivableHandler{receivableService: receivableService, auditService: auditService}
}

// MarkReceivableRequest represents the request payload for marking a receivable
type MarkReceivableRequest struct {
	Note *string `json:"note" binding:"omitempty,max=200"`
}

// MarkReceivedRequest represents the request payload for resolving a receivable
type MarkReceivedRequest struct {
	AccountID *string `json:"account_id" binding:"omitempty,uuid"`
}

// LinkPaymentRequest represents the request payload for attaching an existing income
type LinkPaymentRequest struct {
	IncomeID string `json:"income_id" binding:"required,uuid"`
}

// MarkReceivable handles flagging a movement as an IOU
// @Summary     Mark a movement as receivable
// @Description Flag a movement as an unresolved IOU, optionally renaming it with a reminder
// @Tags        receivables
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Movement ID"
// @Param       request body MarkReceivableRequest true "Optional reminder text"
// @Success     200 {object} models.Movement "Marked movement"
// @Failure     400 {object} ErrorResponse "Transfer leg"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id}/receivable [post]
func (h *ReceivableHandler) MarkReceivable(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movementID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MarkReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	movement, err := h.receivableService.MarkReceivable(userID, movementID, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "MARK_RECEIVABLE", "movement", movementID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// UnmarkReceivable handles reverting a receivable to an ordinary movement
// @Summary     Unmark a receivable
// @Description Clear the receivable flags, deleting any linked payment movement
// @Tags        receivables
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} models.Movement "Cleared movement"
// @Failure     400 {object} ErrorResponse "Not a receivable"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id}/receivable [delete]
func (h *ReceivableHandler) UnmarkReceivable(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movementID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := h.receivableService.UnmarkReceivable(userID, movementID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UNMARK_RECEIVABLE", "movement", movementID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// MarkAsReceived handles resolving a receivable with a new payment
// @Summary     Resolve a receivable
// @Description Mark a receivable received; with an account, also create the income payment
// @Tags        receivables
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Movement ID"
// @Param       request body MarkReceivedRequest true "Optional destination account"
// @Success     200 {object} models.Movement "Resolved receivable"
// @Failure     400 {object} ErrorResponse "Not a receivable"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement or account not found"
// @Failure     409 {object} ErrorResponse "Already resolved"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id}/received [post]
func (h *ReceivableHandler) MarkAsReceived(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movementID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MarkReceivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	movement, err := h.receivableService.MarkAsReceived(userID, movementID, req.AccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "MARK_RECEIVED", "movement", movementID, c.ClientIP(),
		map[string]interface{}{"account_id": req.AccountID})

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// LinkPayment handles resolving a receivable with an existing income
// @Summary     Link an existing payment
// @Description Resolve a receivable by attaching an income movement that already exists
// @Tags        receivables
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Movement ID"
// @Param       request body LinkPaymentRequest true "Income movement to attach"
// @Success     204 "Receivable resolved"
// @Failure     400 {object} ErrorResponse "Not a receivable or not an income"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     409 {object} ErrorResponse "Already resolved or income already linked"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id}/received/link [post]
func (h *ReceivableHandler) LinkPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movementID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req LinkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.receivableService.MarkAsReceivedWithExisting(userID, movementID, req.IncomeID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "LINK_PAYMENT", "movement", movementID, c.ClientIP(),
		map[string]interface{}{"income_id": req.IncomeID})

	c.Status(http.StatusNoContent)
}
