package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/ledger"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount opens an account with an empty ledger.
func (s *accountService) CreateAccount(in AccountInput) (*models.Account, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if strings.TrimSpace(in.Institution) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "institution is required")
	}
	if in.Type == "" {
		in.Type = models.AccountTypeChecking
	}
	if !models.IsValidAccountType(in.Type) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown account type "+string(in.Type))
	}
	if in.Ownership == "" {
		in.Ownership = models.OwnershipJoint
	}
	if !models.IsValidOwnership(in.Ownership) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown ownership "+string(in.Ownership))
	}

	// Only the last four digits of an account number are kept.
	number := strings.TrimSpace(in.AccountNumber)
	if len(number) > 4 {
		number = number[len(number)-4:]
	}

	account := &models.Account{
		CaseReference: in.CaseReference,
		Name:          in.Name,
		Institution:   in.Institution,
		AccountNumber: number,
		Type:          in.Type,
		Ownership:     in.Ownership,
		IsActive:      true,
	}
	if in.OpeningDate != nil {
		opened := models.NormalizeDate(*in.OpeningDate)
		account.OpeningDate = &opened
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetAccounts retrieves a paginated list of active accounts, optionally
// restricted to one case.
func (s *accountService) GetAccounts(caseReference string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page = page.Normalize(pagination.MaxPageSize)

	base := s.db.Model(&models.Account{}).Where("is_active = ?", true)
	if caseReference != "" {
		base = base.Where("case_reference = ?", caseReference)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Order("created_at ASC").Scopes(pagination.Paginate(page)).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPageResponse(accounts, page, totalItems), nil
}

// GetAccountByID retrieves an account by ID.
func (s *accountService) GetAccountByID(accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// RefreshBalance recomputes the cached current_balance from the ledger using tx.
func (s *accountService) RefreshBalance(ctx context.Context, tx *gorm.DB, accountID string) (decimal.Decimal, error) {
	balance, err := ledger.NewReader(tx).Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrDataUnavailable, err)
	}
	if err := tx.Model(&models.Account{}).Where("id = ?", accountID).Update("current_balance", balance).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balance, nil
}
