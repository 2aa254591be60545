package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "nestegg/internal/errors"
	"nestegg/internal/pagination"
	"nestegg/internal/services"
)

// SavingsHandler handles savings account and transfer requests.
type SavingsHandler struct {
	savingsService  services.SavingsServicer
	transferService services.TransferServicer
	auditService    services.AuditServicer
}

// NewSavingsHandler creates a new SavingsHandler.
func NewSavingsHandler(savingsService services.SavingsServicer, transferService services.TransferServicer, auditService services.AuditServicer) *SavingsHandler {
	return &SavingsHandler{
		savingsService:  savingsService,
		transferService: transferService,
		auditService:    auditService,
	}
}

// ManualContributionRequest represents the payload for a manual deposit.
type ManualContributionRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=500"`
}

// CoverOverrunRequest represents the payload for covering a budget overrun.
// A nil amount covers the full overrun.
type CoverOverrunRequest struct {
	Amount *int64 `json:"amount" binding:"omitempty,gt=0"`
}

// CycleTransferRequest represents the payload for a legacy cycle transfer.
type CycleTransferRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=2000,max=2200"`
}

// CycleCoverRequest represents the payload for a legacy cycle coverage.
type CycleCoverRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
	Month  int   `json:"month" binding:"required,min=1,max=12"`
	Year   int   `json:"year" binding:"required,min=2000,max=2200"`
}

// GetSavings returns the user's savings account.
// @Summary     Get savings account
// @Description Get the savings account, creating a zero-balance one on first access
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Savings "Savings account"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings [get]
func (h *SavingsHandler) GetSavings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	savings, err := h.savingsService.GetOrCreate(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"savings": savings})
}

// GetHistory returns the savings audit log.
// @Summary     Get savings history
// @Description Get the savings transaction audit log, newest first
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.SavingsTransaction] "Paginated history"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings/history [get]
func (h *SavingsHandler) GetHistory(c *gin.Context) {
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

	result, err := h.savingsService.GetHistory(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStatistics returns aggregated savings figures.
// @Summary     Get savings statistics
// @Description Get balance, lifetime counters, and 30-day movement totals
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.SavingsStatistics "Savings statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings/statistics [get]
func (h *SavingsHandler) GetStatistics(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.savingsService.GetStatistics(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}

// TransferRemainder moves a completed budget's remainder into savings.
// @Summary     Transfer budget remainder
// @Description Move a budget's unspent remainder into savings
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} services.TransferResult "Transfer result"
// @Failure     400 {object} ErrorResponse "Already transferred or nothing to transfer"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings/transfers/budgets/{id} [post]
func (h *SavingsHandler) TransferRemainder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transferService.TransferBudgetRemainder(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "TRANSFER_BUDGET_REMAINDER", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"amount": result.Transaction.Amount})

	c.JSON(http.StatusOK, result)
}

// CoverOverrun withdraws from savings to cover a budget overrun.
// @Summary     Cover budget overrun
// @Description Withdraw from savings to cover an active budget's overspend
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                 true  "Budget ID"
// @Param       request body CoverOverrunRequest false "Optional partial amount"
// @Success     200 {object} services.TransferResult "Transfer result"
// @Failure     400 {object} ErrorResponse "Not overrun or insufficient savings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings/transfers/budgets/{id}/cover [post]
func (h *SavingsHandler) CoverOverrun(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CoverOverrunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	result, err := h.transferService.CoverBudgetOverrunByID(userID, budgetID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "COVER_BUDGET_OVERRUN", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"amount": result.Transaction.Amount})

	c.JSON(http.StatusOK, result)
}

// Contribute deposits free money into savings.
// @Summary     Manual contribution
// @Description Deposit uncommitted money into savings
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ManualContributionRequest true "Contribution details"
// @Success     200 {object} services.SavingsMovement "Deposit result"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient available balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings/contributions [post]
func (h *SavingsHandler) Contribute(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ManualContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	movement, err := h.transferService.ManualContribution(userID, req.Amount, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "MANUAL_CONTRIBUTION", "savings", movement.Savings.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	c.JSON(http.StatusOK, movement)
}

// TransferSurplus moves a legacy monthly cycle's surplus into savings.
// @Summary     Transfer cycle surplus
// @Description Move a monthly cycle's aggregate surplus into savings
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CycleTransferRequest true "Cycle"
// @Success     200 {object} services.SavingsMovement "Deposit result"
// @Failure     400 {object} ErrorResponse "Nothing to transfer or duplicate transfer"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings/transfers/cycles [post]
func (h *SavingsHandler) TransferSurplus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CycleTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	movement, err := h.transferService.TransferBudgetSurplus(userID, req.Month, req.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "TRANSFER_CYCLE_SURPLUS", "savings", movement.Savings.ID, c.ClientIP(),
		map[string]interface{}{"month": req.Month, "year": req.Year, "amount": movement.Transaction.Amount})

	c.JSON(http.StatusOK, movement)
}

// CoverCycleOverrun withdraws from savings against a legacy cycle overspend.
// @Summary     Cover cycle overrun
// @Description Withdraw from savings against a monthly cycle's overspend
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CycleCoverRequest true "Cycle and amount"
// @Success     200 {object} services.SavingsMovement "Withdrawal result"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient savings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings/transfers/cycles/cover [post]
func (h *SavingsHandler) CoverCycleOverrun(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CycleCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	movement, err := h.transferService.CoverBudgetOverrun(userID, req.Amount, req.Month, req.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "COVER_CYCLE_OVERRUN", "savings", movement.Savings.ID, c.ClientIP(),
		map[string]interface{}{"month": req.Month, "year": req.Year, "amount": req.Amount})

	c.JSON(http.StatusOK, movement)
}

// GetTransferStatus returns the composite cycle transfer status.
// @Summary     Get transfer status
// @Description Get cycle figures and flags for offering surplus transfer or overrun coverage
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       month query int true "Cycle month (1-12)"
// @Param       year  query int true "Cycle year"
// @Success     200 {object} services.TransferStatus "Transfer status"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /savings/transfers/status [get]
func (h *SavingsHandler) GetTransferStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid month"))
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid year"))
		return
	}

	status, err := h.transferService.GetTransferStatus(userID, month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
