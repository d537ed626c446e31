package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "platita/internal/errors"
	"platita/internal/services"
)

// ReportHandler handles balance and report requests.
type ReportHandler struct {
	balanceService services.BalanceServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(balanceService services.BalanceServicer) *ReportHandler {
	return &ReportHandler{balanceService: balanceService}
}

// GetTotalBalance handles the retrieval of the user's aggregated balances
// @Summary     Get total balance
// @Description Get every active account's balance plus the grand total in CLP
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.TotalBalance "Aggregated balances"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Failure     503 {object} ErrorResponse "Exchange rate unavailable"
// @Router      /reports/balance [get]
func (h *ReportHandler) GetTotalBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.balanceService.TotalBalance(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, total)
}

// GetDailyTotals handles the retrieval of daily income/expense aggregates
// @Summary     Get daily totals
// @Description Get income and expense sums per calendar day over a date range
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from query string true "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to   query string true "End date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {array} services.DailyTotal "Daily aggregates"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/daily [get]
func (h *ReportHandler) GetDailyTotals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to are required"))
		return
	}

	from, err := parseFlexibleTime(fromStr)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	to, err := parseFlexibleTime(toStr)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if to.Before(from) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from"))
		return
	}
	// A plain YYYY-MM-DD end date covers the whole day.
	if to.Equal(to.Truncate(24 * time.Hour)) {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	totals, err := h.balanceService.DailyTotals(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"daily_totals": totals})
}
