package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the request payload for opening an account
type CreateAccountRequest struct {
	CaseReference string             `json:"case_reference" binding:"max=100"`
	Name          string             `json:"name" binding:"required,min=1,max=200"`
	Institution   string             `json:"institution" binding:"required,min=1,max=200"`
	AccountNumber string             `json:"account_number" binding:"max=50"`
	Type          models.AccountType `json:"type" binding:"omitempty,account_type"`
	Ownership     models.Ownership   `json:"ownership" binding:"omitempty,ownership"`
	OpeningDate   string             `json:"opening_date" binding:"omitempty,iso_date"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Open a financial account within a case
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.AccountInput{
		CaseReference: req.CaseReference,
		Name:          req.Name,
		Institution:   req.Institution,
		AccountNumber: req.AccountNumber,
		Type:          req.Type,
		Ownership:     req.Ownership,
	}
	if req.OpeningDate != "" {
		opened, err := parseFlexibleTime(req.OpeningDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		in.OpeningDate = &opened
	}

	account, err := h.accountService.CreateAccount(in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(getActor(c), "CREATE_ACCOUNT", "account", account.ID, c.ClientIP(),
		map[string]interface{}{"name": account.Name, "type": account.Type, "case_reference": account.CaseReference})

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// GetAccounts handles listing accounts
// @Summary     List accounts
// @Description Get a paginated list of active accounts, optionally for one case
// @Tags        accounts
// @Produce     json
// @Param       case_reference query string false "Case reference"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Account] "Paginated accounts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) GetAccounts(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.accountService.GetAccounts(c.Query("case_reference"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAccountByID handles the retrieval of a specific account
// @Summary     Get account by ID
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account details"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}
