package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/importer"
	"exitprotocol/internal/jobs"
	"exitprotocol/internal/logger"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
)

// transactionService handles ledger writes. Writes take the account lock so
// sequence numbers are assigned without gaps racing each other, and so a
// running calculation always sees a stable ledger.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
	dispatcher     jobs.Dispatcher
	locks          *jobs.KeyedMutex
}

// NewTransactionService creates a new TransactionServicer. locks must be the
// instance shared with the claim service.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, dispatcher jobs.Dispatcher, locks *jobs.KeyedMutex) TransactionServicer {
	if locks == nil {
		locks = jobs.NewKeyedMutex()
	}
	return &transactionService{
		db:             db,
		accountService: accountService,
		dispatcher:     dispatcher,
		locks:          locks,
	}
}

// nextSequence returns the next creation sequence number for an account.
func nextSequence(tx *gorm.DB, accountID string) (int64, error) {
	var maxSeq int64
	if err := tx.Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&maxSeq).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return maxSeq + 1, nil
}

// CreateTransaction records one transaction and schedules an account recalculation.
func (s *transactionService) CreateTransaction(ctx context.Context, accountID string, in TransactionInput) (*models.Transaction, error) {
	if in.Amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be non-zero")
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction date is required")
	}
	if in.Type == "" {
		in.Type = importer.TypeForAmount(in.Amount)
	}
	if !models.IsValidTransactionType(in.Type) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown transaction type "+string(in.Type))
	}
	if in.Category == "" {
		in.Category = "uncategorized"
	}

	if _, err := s.accountService.GetAccountByID(accountID); err != nil {
		return nil, err
	}
	if in.ClaimID != nil {
		var count int64
		if err := s.db.Model(&models.Claim{}).Where("id = ? AND account_id = ?", *in.ClaimID, accountID).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrClaimNotFound
		}
	}

	txn := &models.Transaction{
		AccountID:          accountID,
		TransactionDate:    models.NormalizeDate(in.Date),
		Description:        importer.Describe(in.Description),
		Amount:             in.Amount.Round(2),
		Type:               in.Type,
		Category:           in.Category,
		Memo:               in.Memo,
		CheckNumber:        in.CheckNumber,
		IsSeparateProperty: in.IsSeparateProperty || in.ClaimID != nil,
		ClaimID:            in.ClaimID,
	}
	if ext := strings.TrimSpace(in.ExternalID); ext != "" {
		txn.ExternalID = &ext
	}

	unlock := s.locks.Lock(accountID)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txn.ExternalID != nil {
			var count int64
			if err := tx.Model(&models.Transaction{}).
				Where("account_id = ? AND external_id = ?", accountID, *txn.ExternalID).
				Count(&count).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return apperrors.ErrDuplicateTransaction
			}
		}

		seq, err := nextSequence(tx, accountID)
		if err != nil {
			return err
		}
		txn.Sequence = seq
		if err := tx.Create(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		_, err = s.accountService.RefreshBalance(ctx, tx, accountID)
		return err
	})
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatchAccount(ctx, accountID)
	return txn, nil
}

// ImportRecords writes records in one transaction, skipping any whose
// external ID is already on the account or repeated in the batch, then
// schedules an account recalculation. warnings from the producer are passed
// through to the result.
func (s *transactionService) ImportRecords(ctx context.Context, accountID string, records []importer.Record, warnings []string) (*ImportResult, error) {
	if _, err := s.accountService.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	result := &ImportResult{Warnings: warnings}
	if len(records) == 0 {
		result.Warnings = append(result.Warnings, "no records to import")
		return result, nil
	}

	now := time.Now()
	unlock := s.locks.Lock(accountID)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		seq, err := nextSequence(tx, accountID)
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(records))
		for _, rec := range records {
			txn := &models.Transaction{
				AccountID:       accountID,
				Sequence:        seq,
				TransactionDate: models.NormalizeDate(rec.Date),
				Description:     importer.Describe(rec.Description),
				Amount:          rec.Amount,
				Type:            rec.Type,
				Category:        rec.Category,
				Memo:            rec.Memo,
				CheckNumber:     rec.CheckNumber,
				ImportedAt:      &now,
			}
			if txn.Type == "" {
				txn.Type = importer.TypeForAmount(rec.Amount)
			}
			if txn.Category == "" {
				txn.Category = "uncategorized"
			}
			if rec.ExternalID != "" {
				if seen[rec.ExternalID] {
					result.Skipped++
					continue
				}
				seen[rec.ExternalID] = true
				ext := rec.ExternalID
				txn.ExternalID = &ext
			}

			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "account_id"}, {Name: "external_id"}},
				DoNothing: true,
			}).Create(txn)
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrImportFailed, res.Error)
			}
			if res.RowsAffected == 0 {
				result.Skipped++
				continue
			}
			result.Imported++
			seq++
		}

		_, err = s.accountService.RefreshBalance(ctx, tx, accountID)
		return err
	})
	unlock()
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Transactions imported",
		"account_id", accountID,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)

	if result.Imported > 0 {
		if job := s.dispatchAccount(ctx, accountID); job != nil {
			result.JobID = job.ID
		}
	}
	return result, nil
}

// GetAccountTransactions retrieves a paginated, filtered list of an account's
// transactions in ledger order.
func (s *transactionService) GetAccountTransactions(accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.accountService.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	page = page.Normalize(pagination.MaxPageSize)

	base := s.db.Model(&models.Transaction{}).Where("account_id = ?", accountID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("transaction_date ASC, sequence ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPageResponse(transactions, page, totalItems), nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", models.NormalizeDate(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", models.NormalizeDate(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID.
func (s *transactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction removes a transaction and schedules an account recalculation.
func (s *transactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(transaction.AccountID)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err := s.accountService.RefreshBalance(ctx, tx, transaction.AccountID)
		return err
	})
	unlock()
	if err != nil {
		return err
	}

	s.dispatchAccount(ctx, transaction.AccountID)
	return nil
}

// dispatchAccount schedules an account recalculation. A dispatch failure is
// logged only: the write has already been committed.
func (s *transactionService) dispatchAccount(ctx context.Context, accountID string) *jobs.Job {
	if s.dispatcher == nil {
		return nil
	}
	job, err := s.dispatcher.Dispatch(ctx, jobs.KindAccount, accountID)
	if err != nil {
		logger.Get().Warnw("recalculation dispatch failed",
			"kind", jobs.KindAccount,
			"target_id", accountID,
			"error", err,
		)
	}
	return job
}
