package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "platita/internal/errors"
	"platita/internal/models"
	"platita/internal/services"
)

// TransferHandler handles transfer-related requests.
type TransferHandler struct {
	transferService services.TransferServicer
	auditService    services.AuditServicer
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService services.TransferServicer, auditService services.AuditServicer) *TransferHandler {
	return &TransferHandler{transferService: transferService, auditService: auditService}
}

// CreateTransferRequest represents the request payload for creating a transfer
type CreateTransferRequest struct {
	FromAccountID string          `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string          `json:"to_account_id" binding:"required,uuid"`
	Amount        int64           `json:"amount" binding:"required,gt=0"`
	Currency      models.Currency `json:"currency" binding:"omitempty,ledger_currency"`
	Note          string          `json:"note" binding:"max=200"`
	Date          *string         `json:"date"`
}

// ConvertToTransferRequest represents the request payload for converting a
// movement into a transfer leg
type ConvertToTransferRequest struct {
	ToAccountID string `json:"to_account_id" binding:"required,uuid"`
}

// UpdateTransferRequest represents the request payload for editing a transfer
type UpdateTransferRequest struct {
	Amount   *int64           `json:"amount" binding:"omitempty,gt=0"`
	Currency *models.Currency `json:"currency" binding:"omitempty,ledger_currency"`
	Date     *string          `json:"date"`
	Note     *string          `json:"note" binding:"omitempty,max=200"`
}

// CreateTransfer handles the creation of a transfer between two accounts
// @Summary     Create a transfer
// @Description Create both legs of a transfer between two owned accounts
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransferRequest true "Transfer details"
// @Success     201 {object} models.Movement "Both transfer legs"
// @Failure     400 {object} ErrorResponse "Invalid input or same account"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     503 {object} ErrorResponse "Exchange rate unavailable"
// @Router      /transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		date = parsed
	}

	expense, income, err := h.transferService.CreateTransfer(c.Request.Context(), userID, services.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Note:          req.Note,
		Date:          date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSFER", "transfer", *expense.TransferID, c.ClientIP(),
		map[string]interface{}{
			"from_account_id": req.FromAccountID,
			"to_account_id":   req.ToAccountID,
			"amount":          req.Amount,
		})

	c.JSON(http.StatusCreated, gin.H{"expense": expense, "income": income})
}

// ConvertToTransfer handles converting an existing movement into a transfer
// @Summary     Convert a movement to a transfer
// @Description Create the opposite leg on the destination account and link both movements
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Movement ID"
// @Param       request body ConvertToTransferRequest true "Destination account"
// @Success     201 {object} models.Movement "Both transfer legs"
// @Failure     400 {object} ErrorResponse "Invalid input or same account"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement or account not found"
// @Failure     409 {object} ErrorResponse "Movement already part of a transfer"
// @Failure     503 {object} ErrorResponse "Exchange rate unavailable"
// @Router      /movements/{id}/convert-to-transfer [post]
func (h *TransferHandler) ConvertToTransfer(c *gin.Context) {
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

	var req ConvertToTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	original, pair, err := h.transferService.ConvertToTransfer(c.Request.Context(), userID, movementID, req.ToAccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CONVERT_TO_TRANSFER", "transfer", *original.TransferID, c.ClientIP(),
		map[string]interface{}{"movement_id": movementID, "to_account_id": req.ToAccountID})

	c.JSON(http.StatusCreated, gin.H{"original": original, "pair": pair})
}

// GetTransfer handles the retrieval of both legs of a transfer
// @Summary     Get a transfer
// @Description Get both legs sharing a transfer id
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transfer ID"
// @Success     200 {object} models.Movement "Both transfer legs"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, income, err := h.transferService.GetTransferLegs(userID, transferID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense, "income": income})
}

// UpdateTransfer handles edits to both legs of a transfer
// @Summary     Update a transfer
// @Description Update a transfer's amount, date, or note; both legs change together
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Transfer ID"
// @Param       request body UpdateTransferRequest true "Fields to update"
// @Success     200 {object} models.Movement "Updated transfer legs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Failure     503 {object} ErrorResponse "Exchange rate unavailable"
// @Router      /transfers/{id} [put]
func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.TransferUpdateFields{
		Amount:   req.Amount,
		Currency: req.Currency,
		Note:     req.Note,
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		fields.Date = &parsed
	}

	if err := h.transferService.UpdateTransfer(c.Request.Context(), userID, transferID, fields); err != nil {
		respondWithError(c, err)
		return
	}

	expense, income, err := h.transferService.GetTransferLegs(userID, transferID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSFER", "transfer", transferID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": expense, "income": income})
}

// DeleteTransfer handles the deletion of both legs of a transfer
// @Summary     Delete a transfer
// @Description Remove both legs of a transfer in one operation
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transfer ID"
// @Success     204 "Transfer deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transfers/{id} [delete]
func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transferService.DeleteTransfer(userID, transferID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSFER", "transfer", transferID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
