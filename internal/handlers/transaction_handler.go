package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/importer"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/services"
)

// maxOFXUpload bounds statement uploads held in memory.
const maxOFXUpload = 10 << 20

// TransactionHandler handles ledger requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for recording a transaction.
// Amount is signed: positive for inflows, negative for outflows.
type CreateTransactionRequest struct {
	TransactionDate    string                 `json:"transaction_date" binding:"required,iso_date"`
	Description        string                 `json:"description" binding:"max=512"`
	Amount             decimal.Decimal        `json:"amount"`
	Type               models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Category           string                 `json:"category" binding:"max=100"`
	Memo               string                 `json:"memo" binding:"max=500"`
	CheckNumber        string                 `json:"check_number" binding:"max=20"`
	ExternalID         string                 `json:"external_id" binding:"max=255"`
	IsSeparateProperty bool                   `json:"is_separate_property"`
	ClaimID            *string                `json:"claim_id" binding:"omitempty,uuid"`
}

// ImportTransactionsRequest represents a bulk import payload.
type ImportTransactionsRequest struct {
	Transactions []importer.RecordInput `json:"transactions" binding:"required,max=10000"`
}

// CreateTransaction handles recording a transaction on an account
// @Summary     Create a transaction
// @Description Record a signed transaction and schedule a recalculation of the account's claims
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string                   true "Account ID"
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or claim not found"
// @Failure     409 {object} ErrorResponse "Duplicate external id"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id}/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseFlexibleTime(req.TransactionDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), accountID, services.TransactionInput{
		Date:               date,
		Description:        req.Description,
		Amount:             req.Amount,
		Type:               req.Type,
		Category:           req.Category,
		Memo:               req.Memo,
		CheckNumber:        req.CheckNumber,
		ExternalID:         req.ExternalID,
		IsSeparateProperty: req.IsSeparateProperty,
		ClaimID:            req.ClaimID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(getActor(c), "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"account_id": accountID, "amount": transaction.Amount.StringFixed(2), "date": req.TransactionDate})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetAccountTransactions handles the retrieval of transactions for a specific account
// @Summary     Get account transactions
// @Description Get a paginated list of an account's transactions in ledger order with optional filters
// @Tags        accounts,transactions
// @Produce     json
// @Param       id        path  string true  "Account ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       from_date query string false "Filter by start date (YYYY-MM-DD or RFC3339)"
// @Param       to_date   query string false "Filter by end date (YYYY-MM-DD or RFC3339)"
// @Param       type      query string false "Filter by transaction type"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id}/transactions [get]
func (h *TransactionHandler) GetAccountTransactions(c *gin.Context) {
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

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetAccountTransactions(accountID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use YYYY-MM-DD or RFC3339")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use YYYY-MM-DD or RFC3339")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !models.IsValidTransactionType(txType) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type "+v)
		}
		filter.Type = &txType
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles removing a transaction
// @Summary     Delete transaction
// @Description Delete a transaction and schedule a recalculation of the account's claims
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(getActor(c), "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// ImportTransactions handles a JSON bulk import
// @Summary     Bulk import transactions
// @Description Import transactions in one batch. Rows whose external_id is already on the account are skipped.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string                    true "Account ID"
// @Param       request body ImportTransactionsRequest true "Transactions"
// @Success     200 {object} services.ImportResult "Import summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "Import failed"
// @Router      /accounts/{id}/transactions/import [post]
func (h *TransactionHandler) ImportTransactions(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ImportTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	records, err := importer.FromInputs(req.Transactions)
	if err != nil {
		var rowErr *importer.RowError
		if errors.As(err, &rowErr) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, rowErr.Error()))
			return
		}
		respondWithError(c, err)
		return
	}

	h.importRecords(c, accountID, "json", records, nil)
}

// ImportOFX handles an OFX/QFX statement upload
// @Summary     Import an OFX statement
// @Description Import the transactions of an OFX or QFX statement. FITIDs already on the account are skipped.
// @Tags        transactions
// @Accept      multipart/form-data
// @Produce     json
// @Param       id   path     string true "Account ID"
// @Param       file formData file   true "OFX/QFX statement"
// @Success     200 {object} services.ImportResult "Import summary"
// @Failure     400 {object} ErrorResponse "Invalid statement"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "Import failed"
// @Router      /accounts/{id}/transactions/import/ofx [post]
func (h *TransactionHandler) ImportOFX(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "statement file is required"))
		return
	}
	if header.Size > maxOFXUpload {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "statement file is too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	stmt, err := importer.ParseOFX(c.Request.Context(), file)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	h.importRecords(c, accountID, "ofx", stmt.Records, stmt.Warnings)
}

func (h *TransactionHandler) importRecords(c *gin.Context, accountID, source string, records []importer.Record, warnings []string) {
	result, err := h.transactionService.ImportRecords(c.Request.Context(), accountID, records, warnings)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(getActor(c), "IMPORT_TRANSACTIONS", "account", accountID, c.ClientIP(),
		map[string]interface{}{"source": source, "imported": result.Imported, "skipped": result.Skipped})

	c.JSON(http.StatusOK, result)
}
