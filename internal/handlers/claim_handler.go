package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/jobs"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/services"
)

// ClaimHandler handles separate property claims and their calculations.
type ClaimHandler struct {
	claimService   services.ClaimServicer
	accountService services.AccountServicer
	dispatcher     jobs.Dispatcher
	auditService   services.AuditServicer
}

// NewClaimHandler creates a new ClaimHandler.
func NewClaimHandler(
	claimService services.ClaimServicer,
	accountService services.AccountServicer,
	dispatcher jobs.Dispatcher,
	auditService services.AuditServicer,
) *ClaimHandler {
	return &ClaimHandler{
		claimService:   claimService,
		accountService: accountService,
		dispatcher:     dispatcher,
		auditService:   auditService,
	}
}

// CreateClaimRequest represents the request payload for asserting a claim
type CreateClaimRequest struct {
	Name               string            `json:"name" binding:"required,min=1,max=200"`
	SourceType         models.SourceType `json:"source_type" binding:"required,claim_source"`
	Description        string            `json:"description" binding:"max=2000"`
	InitialDepositDate string            `json:"initial_deposit_date" binding:"required,iso_date"`
	InitialAmount      decimal.Decimal   `json:"initial_amount"`
	RecordDeposit      bool              `json:"record_deposit"`
}

// CreateClaim handles asserting a separate property claim on an account
// @Summary     Create a claim
// @Description Assert that an amount deposited on a date is separate property. The first calculation is scheduled immediately.
// @Tags        claims
// @Accept      json
// @Produce     json
// @Param       id      path string             true "Account ID"
// @Param       request body CreateClaimRequest true "Claim details"
// @Success     201 {object} models.Claim "Claim created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id}/claims [post]
func (h *ClaimHandler) CreateClaim(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	depositDate, err := parseFlexibleTime(req.InitialDepositDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	claim, err := h.claimService.CreateClaim(c.Request.Context(), accountID, services.ClaimInput{
		Name:               req.Name,
		SourceType:         req.SourceType,
		Description:        req.Description,
		InitialDepositDate: depositDate,
		InitialAmount:      req.InitialAmount,
		RecordDeposit:      req.RecordDeposit,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(getActor(c), "CREATE_CLAIM", "claim", claim.ID, c.ClientIP(),
		map[string]interface{}{
			"account_id":           accountID,
			"initial_amount":       claim.InitialAmount.StringFixed(2),
			"initial_deposit_date": req.InitialDepositDate,
			"source_type":          claim.SourceType,
		})

	c.JSON(http.StatusCreated, gin.H{"claim": claim})
}

// GetAccountClaims handles listing an account's claims
// @Summary     List account claims
// @Tags        claims
// @Produce     json
// @Param       id        path  string true  "Account ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Claim] "Paginated claims"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/claims [get]
func (h *ClaimHandler) GetAccountClaims(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.claimService.GetAccountClaims(accountID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetClaimByID handles the retrieval of a specific claim
// @Summary     Get claim by ID
// @Tags        claims
// @Produce     json
// @Param       id path string true "Claim ID"
// @Success     200 {object} models.Claim "Claim details"
// @Failure     400 {object} ErrorResponse "Invalid claim ID"
// @Failure     404 {object} ErrorResponse "Claim not found"
// @Router      /claims/{id} [get]
func (h *ClaimHandler) GetClaimByID(c *gin.Context) {
	claimID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	claim, err := h.claimService.GetClaimByID(claimID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// DeleteClaim handles removing a claim
// @Summary     Delete claim
// @Description Delete a claim, unlink its deposit and rebuild the account's snapshots from the remaining claims
// @Tags        claims
// @Produce     json
// @Param       id path string true "Claim ID"
// @Success     200 {object} map[string]string "Claim deleted"
// @Failure     400 {object} ErrorResponse "Invalid claim ID"
// @Failure     404 {object} ErrorResponse "Claim not found"
// @Router      /claims/{id} [delete]
func (h *ClaimHandler) DeleteClaim(c *gin.Context) {
	claimID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.claimService.DeleteClaim(claimID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(getActor(c), "DELETE_CLAIM", "claim", claimID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Claim deleted successfully"})
}

// CalculateClaim handles an on-demand LIBR calculation
// @Summary     Calculate a claim
// @Description Run the lowest intermediate balance trace for one claim and persist its results
// @Tags        claims
// @Produce     json
// @Param       id path string true "Claim ID"
// @Success     200 {object} services.ClaimResult "Calculation result"
// @Failure     400 {object} ErrorResponse "Invalid claim"
// @Failure     404 {object} ErrorResponse "Claim not found"
// @Failure     409 {object} ErrorResponse "Transactions cannot be ordered"
// @Failure     422 {object} ErrorResponse "Ledger data unavailable or range exceeded"
// @Failure     500 {object} ErrorResponse "Calculation invariant violated"
// @Router      /claims/{id}/calculate [post]
func (h *ClaimHandler) CalculateClaim(c *gin.Context) {
	claimID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.claimService.Calculate(c.Request.Context(), claimID)

	changes := map[string]interface{}{}
	if result != nil {
		changes["status"] = result.Status
		changes["traceable"] = result.Traceable.StringFixed(2)
	}
	h.auditService.Log(getActor(c), "CALCULATE_CLAIM", "claim", claimID, c.ClientIP(), changes)

	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetClaimReport handles the retrieval of a claim's narrative report
// @Summary     Get claim report
// @Description Get the display and export summary of a claim's last calculation
// @Tags        claims
// @Produce     json
// @Param       id path string true "Claim ID"
// @Success     200 {object} report.Report "Claim report"
// @Failure     400 {object} ErrorResponse "Invalid claim ID"
// @Failure     404 {object} ErrorResponse "Claim not found"
// @Router      /claims/{id}/report [get]
func (h *ClaimHandler) GetClaimReport(c *gin.Context) {
	claimID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rep, err := h.claimService.GetReport(claimID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rep)
}

// RecalculateAccount handles scheduling a recalculation of every claim on an account
// @Summary     Recalculate account
// @Description Schedule a recalculation of every claim on the account, in creation order
// @Tags        claims,accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     202 {object} jobs.Job "Recalculation scheduled"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     503 {object} ErrorResponse "Queue not accepting jobs"
// @Router      /accounts/{id}/recalculate [post]
func (h *ClaimHandler) RecalculateAccount(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.accountService.GetAccountByID(accountID); err != nil {
		respondWithError(c, err)
		return
	}

	// A job that ran and failed is still reported; its status carries the error.
	job, err := h.dispatcher.Dispatch(c.Request.Context(), jobs.KindAccount, accountID)
	if errors.Is(err, jobs.ErrQueueClosed) {
		respondWithError(c, apperrors.ErrQueueClosed)
		return
	}
	if err != nil && job == nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(getActor(c), "RECALCULATE_ACCOUNT", "account", accountID, c.ClientIP(),
		map[string]interface{}{"job_id": job.ID})

	c.JSON(http.StatusAccepted, gin.H{"job": job})
}
