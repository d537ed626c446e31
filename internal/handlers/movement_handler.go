package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "platita/internal/errors"
	"platita/internal/models"
	"platita/internal/pagination"
	"platita/internal/services"
)

// MovementHandler handles movement-related requests.
type MovementHandler struct {
	movementService services.MovementServicer
	splitService    services.SplitServicer
	auditService    services.AuditServicer
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementService services.MovementServicer, splitService services.SplitServicer, auditService services.AuditServicer) *MovementHandler {
	return &MovementHandler{movementService: movementService, splitService: splitService, auditService: auditService}
}

// CreateMovementRequest represents the request payload for creating a movement
type CreateMovementRequest struct {
	AccountID   *string             `json:"account_id" binding:"omitempty,uuid"`
	CategoryID  *string             `json:"category_id" binding:"omitempty,uuid"`
	Name        string              `json:"name" binding:"required,max=200"`
	Type        models.MovementType `json:"type" binding:"required,movement_type"`
	Amount      int64               `json:"amount" binding:"required,gt=0"`
	Currency    models.Currency     `json:"currency" binding:"omitempty,ledger_currency"`
	Date        *string             `json:"date"`
	TimeOfDay   *string             `json:"time_of_day" binding:"omitempty,time_of_day"`
	NeedsReview bool                `json:"needs_review"`
}

// UpdateMovementRequest represents the request payload for updating a movement.
// Transfer and receivable linkage is not editable here.
type UpdateMovementRequest struct {
	AccountID     *string          `json:"account_id" binding:"omitempty,uuid"`
	CategoryID    *string          `json:"category_id" binding:"omitempty,uuid"`
	ClearCategory bool             `json:"clear_category"`
	Name          *string          `json:"name" binding:"omitempty,max=200"`
	Amount        *int64           `json:"amount" binding:"omitempty,gt=0"`
	Currency      *models.Currency `json:"currency" binding:"omitempty,ledger_currency"`
	Date          *string          `json:"date"`
	TimeOfDay     *string          `json:"time_of_day" binding:"omitempty,time_of_day"`
}

// ConfirmReviewRequest represents the request payload for confirming a review
type ConfirmReviewRequest struct {
	Name *string `json:"name" binding:"omitempty,max=200"`
}

// SplitRequest represents the request payload for splitting a movement
type SplitRequest struct {
	Parts []SplitPartRequest `json:"parts" binding:"required,min=2,max=20,dive"`
}

// SplitPartRequest is one slice of a split request
type SplitPartRequest struct {
	Name   string `json:"name" binding:"required,max=200"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// CreateMovement handles the creation of a new movement
// @Summary     Create a movement
// @Description Create a new income or expense, normalized against the account currency
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMovementRequest true "Movement details"
// @Success     201 {object} models.Movement "Movement created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     503 {object} ErrorResponse "Exchange rate unavailable"
// @Router      /movements [post]
func (h *MovementHandler) CreateMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMovementRequest
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

	movement, err := h.movementService.CreateMovement(c.Request.Context(), userID, services.MovementInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Type:        req.Type,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Date:        date,
		TimeOfDay:   req.TimeOfDay,
		NeedsReview: req.NeedsReview,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_MOVEMENT", "movement", movement.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"movement": movement})
}

// GetMovementByID handles the retrieval of a single movement
// @Summary     Get a movement
// @Description Get one of the authenticated user's movements by id
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} models.Movement "Movement"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id} [get]
func (h *MovementHandler) GetMovementByID(c *gin.Context) {
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

	movement, err := h.movementService.GetMovementByID(userID, movementID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// ListMovements handles the retrieval of the user's movements
// @Summary     List movements
// @Description Get a paginated, filtered list of the authenticated user's movements
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Param       account_id   query string false "Filter by account ID"
// @Param       type         query string false "Filter by movement type (income, expense)"
// @Param       needs_review query bool   false "Filter by review flag"
// @Param       receivable   query bool   false "Filter by receivable flag"
// @Param       received     query bool   false "Filter by received flag"
// @Param       from_date    query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date      query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Movement] "Paginated movements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements [get]
func (h *MovementHandler) ListMovements(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseMovementFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.movementService.ListMovements(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateMovement handles updates to an ordinary movement
// @Summary     Update a movement
// @Description Update a movement's fields; transfer legs must go through the transfer endpoints
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Movement ID"
// @Param       request body UpdateMovementRequest true "Fields to update"
// @Success     200 {object} models.Movement "Updated movement"
// @Failure     400 {object} ErrorResponse "Invalid input or transfer leg"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     503 {object} ErrorResponse "Exchange rate unavailable"
// @Router      /movements/{id} [put]
func (h *MovementHandler) UpdateMovement(c *gin.Context) {
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

	var req UpdateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.MovementUpdateFields{
		AccountID: req.AccountID,
		Name:      req.Name,
		Amount:    req.Amount,
		Currency:  req.Currency,
		TimeOfDay: req.TimeOfDay,
	}
	if req.ClearCategory {
		var cleared *string
		fields.CategoryID = &cleared
	} else if req.CategoryID != nil {
		fields.CategoryID = &req.CategoryID
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		fields.Date = &parsed
	}

	movement, err := h.movementService.UpdateMovement(c.Request.Context(), userID, movementID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_MOVEMENT", "movement", movement.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// DeleteMovement handles the deletion of an ordinary movement
// @Summary     Delete a movement
// @Description Delete a movement; transfer legs must go through the transfer endpoints
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     204 "Movement deleted"
// @Failure     400 {object} ErrorResponse "Transfer leg"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id} [delete]
func (h *MovementHandler) DeleteMovement(c *gin.Context) {
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

	if err := h.movementService.DeleteMovement(userID, movementID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_MOVEMENT", "movement", movementID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// ConfirmReview handles confirming an imported or split movement
// @Summary     Confirm a movement review
// @Description Clear the needs-review flag, optionally renaming the movement
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Movement ID"
// @Param       request body ConfirmReviewRequest true "Optional new name"
// @Success     200 {object} models.Movement "Reviewed movement"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id}/review [post]
func (h *MovementHandler) ConfirmReview(c *gin.Context) {
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

	var req ConfirmReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	movement, err := h.movementService.ConfirmReview(userID, movementID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// SplitMovement handles splitting one movement into several
// @Summary     Split a movement
// @Description Atomically replace a movement with parts whose amounts sum to it exactly
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Movement ID"
// @Param       request body SplitRequest true "Split parts"
// @Success     201 {array} models.Movement "Split parts created"
// @Failure     400 {object} ErrorResponse "Invalid input or sum mismatch"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id}/split [post]
func (h *MovementHandler) SplitMovement(c *gin.Context) {
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

	var req SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	parts := make([]services.SplitPart, len(req.Parts))
	for i, p := range req.Parts {
		parts[i] = services.SplitPart{Name: p.Name, Amount: p.Amount}
	}

	movements, err := h.splitService.Split(userID, movementID, parts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SPLIT_MOVEMENT", "movement", movementID, c.ClientIP(),
		map[string]interface{}{"parts": len(parts)})

	c.JSON(http.StatusCreated, gin.H{"movements": movements})
}

// parseMovementFilter reads the optional list filters from the query string.
func parseMovementFilter(c *gin.Context) (services.MovementFilter, error) {
	var filter services.MovementFilter

	if v := c.Query("account_id"); v != "" {
		filter.AccountID = &v
	}
	if v := c.Query("type"); v != "" {
		t := models.MovementType(v)
		if t != models.MovementTypeIncome && t != models.MovementTypeExpense {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid type filter")
		}
		filter.Type = &t
	}
	for key, dst := range map[string]**bool{
		"needs_review": &filter.NeedsReview,
		"receivable":   &filter.Receivable,
		"received":     &filter.Received,
	} {
		if v := c.Query(key); v != "" {
			b := v == "true" || v == "1"
			*dst = &b
		}
	}
	if v := c.Query("from_date"); v != "" {
		parsed, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		filter.FromDate = &parsed
	}
	if v := c.Query("to_date"); v != "" {
		parsed, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		filter.ToDate = &parsed
	}

	return filter, nil
}
