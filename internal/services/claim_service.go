package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/jobs"
	"exitprotocol/internal/ledger"
	"exitprotocol/internal/logger"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/report"
	"exitprotocol/internal/tracer"
)

// claimService owns the claim lifecycle. Every calculation, whichever path
// triggered it, runs under the account's lock so that claim fields, running
// balance stamps and snapshot rows are never written by two runs at once.
type claimService struct {
	db              *gorm.DB
	accountService  AccountServicer
	snapshotService SnapshotServicer
	dispatcher      jobs.Dispatcher
	locks           *jobs.KeyedMutex
	maxDays         int
}

// NewClaimService creates a new ClaimServicer. dispatcher may be nil, in which
// case new claims stay pending until calculated explicitly.
func NewClaimService(
	db *gorm.DB,
	accountService AccountServicer,
	snapshotService SnapshotServicer,
	dispatcher jobs.Dispatcher,
	locks *jobs.KeyedMutex,
	maxDays int,
) ClaimServicer {
	if locks == nil {
		locks = jobs.NewKeyedMutex()
	}
	return &claimService{
		db:              db,
		accountService:  accountService,
		snapshotService: snapshotService,
		dispatcher:      dispatcher,
		locks:           locks,
		maxDays:         maxDays,
	}
}

// CreateClaim records a pending claim and schedules its first calculation. A
// ledger transaction on the deposit date for exactly the claimed amount is
// linked to the claim; failing that, the deposit is added to the ledger when
// in.RecordDeposit is set.
func (s *claimService) CreateClaim(ctx context.Context, accountID string, in ClaimInput) (*models.Claim, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "claim name is required")
	}
	if !in.InitialAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "initial amount must be greater than zero")
	}
	if in.InitialDepositDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "initial deposit date is required")
	}
	if in.SourceType == "" {
		in.SourceType = models.SourceOther
	}
	if !models.IsValidSourceType(in.SourceType) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown source type "+string(in.SourceType))
	}
	if _, err := s.accountService.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	depositDate := models.NormalizeDate(in.InitialDepositDate)
	claim := &models.Claim{
		AccountID:          accountID,
		Name:               in.Name,
		SourceType:         in.SourceType,
		Description:        in.Description,
		InitialDepositDate: depositDate,
		InitialAmount:      in.InitialAmount.Round(2),
		CalculationStatus:  models.StatusPending,
	}

	unlock := s.locks.Lock(accountID)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(claim).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.linkDeposit(tx, claim, in.RecordDeposit)
	})
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, jobs.KindClaim, claim.ID)
	return claim, nil
}

// linkDeposit attaches the ledger deposit matching claim, or records one.
func (s *claimService) linkDeposit(tx *gorm.DB, claim *models.Claim, record bool) error {
	var candidates []models.Transaction
	if err := tx.Where("account_id = ? AND transaction_date = ? AND claim_id IS NULL", claim.AccountID, claim.InitialDepositDate).
		Order("sequence ASC").
		Find(&candidates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range candidates {
		if candidates[i].Amount.Equal(claim.InitialAmount) {
			if err := tx.Model(&candidates[i]).Updates(map[string]interface{}{
				"claim_id":             claim.ID,
				"is_separate_property": true,
			}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}
	}
	if !record {
		return nil
	}

	seq, err := nextSequence(tx, claim.AccountID)
	if err != nil {
		return err
	}
	claimID := claim.ID
	deposit := &models.Transaction{
		AccountID:          claim.AccountID,
		Sequence:           seq,
		TransactionDate:    claim.InitialDepositDate,
		Description:        "Separate property deposit: " + claim.Name,
		Amount:             claim.InitialAmount,
		Type:               models.TransactionTypeDeposit,
		Category:           string(claim.SourceType),
		IsSeparateProperty: true,
		ClaimID:            &claimID,
	}
	if err := tx.Create(deposit).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetClaimByID retrieves a claim by ID.
func (s *claimService) GetClaimByID(claimID string) (*models.Claim, error) {
	var claim models.Claim
	if err := s.db.Where("id = ?", claimID).First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrClaimNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &claim, nil
}

// GetAccountClaims retrieves an account's claims in creation order.
func (s *claimService) GetAccountClaims(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.Claim], error) {
	if _, err := s.accountService.GetAccountByID(accountID); err != nil {
		return nil, err
	}
	page = page.Normalize(pagination.MaxPageSize)

	base := s.db.Model(&models.Claim{}).Where("account_id = ?", accountID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var claims []models.Claim
	if err := base.Order("created_at ASC, id ASC").Scopes(pagination.Paginate(page)).Find(&claims).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPageResponse(claims, page, totalItems), nil
}

// DeleteClaim removes a claim, unlinks its deposit, and clears the account's
// snapshots. The remaining claims are then recalculated to rebuild them.
func (s *claimService) DeleteClaim(claimID string) error {
	claim, err := s.GetClaimByID(claimID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(claim.AccountID)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).Where("claim_id = ?", claim.ID).
			Updates(map[string]interface{}{"claim_id": nil, "is_separate_property": false}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("account_id = ?", claim.AccountID).Delete(&models.BalanceSnapshot{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(claim).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	unlock()
	if err != nil {
		return err
	}

	s.dispatch(context.Background(), jobs.KindAccount, claim.AccountID)
	return nil
}

// Calculate recalculates one claim. A tracing failure leaves the claim in the
// error state with its previous results intact; the returned ClaimResult
// describes the failure alongside the error.
func (s *claimService) Calculate(ctx context.Context, claimID string) (*ClaimResult, error) {
	claim, err := s.GetClaimByID(claimID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(claim.AccountID)
	defer unlock()

	return s.calculateLocked(ctx, claim)
}

// CalculateAll recalculates every claim on the account in creation order. A
// failing claim is recorded and the batch continues.
func (s *claimService) CalculateAll(ctx context.Context, accountID string) ([]ClaimResult, error) {
	if _, err := s.accountService.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	var claims []models.Claim
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at ASC, id ASC").Find(&claims).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	results := make([]ClaimResult, 0, len(claims))
	failed := 0
	for i := range claims {
		res, err := s.calculateLocked(ctx, &claims[i])
		if err != nil {
			failed++
		}
		if res != nil {
			results = append(results, *res)
		}
	}

	logger.Get().Infow("Account recalculated",
		"account_id", accountID,
		"claims", len(claims),
		"failed", failed,
	)
	return results, nil
}

// GetReport builds the display/export summary for a claim.
func (s *claimService) GetReport(claimID string) (*report.Report, error) {
	claim, err := s.GetClaimByID(claimID)
	if err != nil {
		return nil, err
	}

	var accountName string
	if account, err := s.accountService.GetAccountByID(claim.AccountID); err == nil {
		accountName = account.Name
	}

	r := report.Build(claim, accountName)
	return &r, nil
}

// calculateLocked runs the full lifecycle for claim. The caller holds the
// account lock.
func (s *claimService) calculateLocked(ctx context.Context, claim *models.Claim) (*ClaimResult, error) {
	log := logger.ForClaim(claim.ID, claim.AccountID)

	if err := s.setStatus(ctx, claim, models.StatusCalculating, ""); err != nil {
		return nil, err
	}

	in, err := s.traceInput(ctx, claim)
	if err != nil {
		return s.fail(ctx, claim, err)
	}

	res, err := tracer.Trace(in)
	if err != nil {
		return s.fail(ctx, claim, err)
	}

	now := time.Now()
	lowestDate := res.LowestBalanceDate
	recorded := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Claim{}).Where("id = ?", claim.ID).Updates(map[string]interface{}{
			"current_traceable_amount": res.Traceable,
			"lowest_balance_amount":    decimal.NewNullDecimal(res.LowestBalance),
			"lowest_balance_date":      lowestDate,
			"last_calculated_at":       now,
			"calculation_status":       models.StatusComplete,
			"last_error":               "",
		}).Error; err != nil {
			return err
		}

		for id, balance := range res.RunningBalances {
			if err := tx.Model(&models.Transaction{}).Where("id = ?", id).
				Update("running_balance", decimal.NewNullDecimal(balance)).Error; err != nil {
				return err
			}
		}

		n, err := s.snapshotService.Record(tx, claim.AccountID, res.Days)
		if err != nil {
			return err
		}
		recorded = n

		_, err = s.accountService.RefreshBalance(ctx, tx, claim.AccountID)
		return err
	})
	if err != nil {
		return s.fail(ctx, claim, err)
	}

	claim.CurrentTraceableAmount = res.Traceable
	claim.LowestBalanceAmount = decimal.NewNullDecimal(res.LowestBalance)
	claim.LowestBalanceDate = &lowestDate
	claim.LastCalculatedAt = &now
	claim.CalculationStatus = models.StatusComplete
	claim.LastError = ""

	log.Infow("LIBR calculation complete",
		"traceable", res.Traceable.StringFixed(2),
		"lowest_balance", res.LowestBalance.StringFixed(2),
		"lowest_balance_date", lowestDate.Format(tracer.DateLayout),
		"dips", len(res.Dips),
		"days", recorded,
	)

	return &ClaimResult{
		ClaimID:           claim.ID,
		Status:            models.StatusComplete,
		InitialAmount:     claim.InitialAmount,
		Traceable:         res.Traceable,
		LowestBalance:     res.LowestBalance,
		LowestBalanceDate: lowestDate.Format(tracer.DateLayout),
		RetentionPct:      report.RetentionPct(res.Traceable, claim.InitialAmount),
		Dips:              res.Dips,
		DaysRecorded:      recorded,
	}, nil
}

// traceInput gathers the ledger view the tracer needs.
func (s *claimService) traceInput(ctx context.Context, claim *models.Claim) (tracer.Input, error) {
	reader := ledger.NewReader(s.db)
	start := models.NormalizeDate(claim.InitialDepositDate)

	opening, err := reader.BalanceAsOf(ctx, claim.AccountID, start.AddDate(0, 0, -1))
	if err != nil {
		return tracer.Input{}, tracer.Unavailable("opening balance", err)
	}
	entries, err := reader.EntriesFrom(ctx, claim.AccountID, start)
	if err != nil {
		return tracer.Input{}, tracer.Unavailable("ledger entries", err)
	}

	hasDeposit, err := s.depositInLedger(ctx, claim, entries)
	if err != nil {
		return tracer.Input{}, tracer.Unavailable("deposit lookup", err)
	}

	return tracer.Input{
		InitialAmount:  claim.InitialAmount,
		StartDate:      start,
		OpeningBalance: opening,
		Entries:        entries,
		AddDeposit:     !hasDeposit,
		MaxDays:        s.maxDays,
	}, nil
}

// depositInLedger reports whether the claimed deposit is already part of the
// ledger, either linked to the claim or as an unlinked transaction for the
// exact amount on the deposit date. The claim's initial amount stays the
// ceiling either way; a linked deposit for a different amount is logged.
func (s *claimService) depositInLedger(ctx context.Context, claim *models.Claim, entries []tracer.Entry) (bool, error) {
	var linked []models.Transaction
	if err := s.db.WithContext(ctx).Select("id", "amount", "transaction_date").
		Where("claim_id = ?", claim.ID).Find(&linked).Error; err != nil {
		return false, err
	}
	if len(linked) > 0 {
		total := decimal.Zero
		for i := range linked {
			total = total.Add(linked[i].Amount)
		}
		if !total.Equal(claim.InitialAmount) {
			logger.ForClaim(claim.ID, claim.AccountID).Warnw("Linked deposit does not match claimed amount",
				"claimed", claim.InitialAmount.StringFixed(2),
				"linked", total.StringFixed(2),
			)
		}
		return true, nil
	}

	start := models.NormalizeDate(claim.InitialDepositDate)
	for _, e := range entries {
		if e.Date.After(start) {
			break
		}
		if e.Amount.Equal(claim.InitialAmount) {
			return true, nil
		}
	}
	return false, nil
}

// fail records err on the claim without touching its cached results and maps
// it to an AppError for the caller.
func (s *claimService) fail(ctx context.Context, claim *models.Claim, cause error) (*ClaimResult, error) {
	logger.ForClaim(claim.ID, claim.AccountID).Errorw("LIBR calculation failed",
		"kind", tracer.KindOf(cause),
		"error", cause,
	)

	if err := s.setStatus(ctx, claim, models.StatusError, cause.Error()); err != nil {
		logger.ForClaim(claim.ID, claim.AccountID).Errorw("failed to record claim error state", "error", err)
	}

	return &ClaimResult{
		ClaimID:       claim.ID,
		Status:        models.StatusError,
		InitialAmount: claim.InitialAmount,
		Traceable:     claim.CurrentTraceableAmount,
		LowestBalance: claim.LowestBalanceAmount.Decimal,
		RetentionPct:  report.RetentionPct(claim.CurrentTraceableAmount, claim.InitialAmount),
		Error:         cause.Error(),
	}, traceAppError(cause)
}

func (s *claimService) setStatus(ctx context.Context, claim *models.Claim, status models.CalculationStatus, lastError string) error {
	updates := map[string]interface{}{"calculation_status": status}
	if status == models.StatusError {
		updates["last_error"] = lastError
	}
	if err := s.db.WithContext(ctx).Model(&models.Claim{}).Where("id = ?", claim.ID).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	claim.CalculationStatus = status
	if status == models.StatusError {
		claim.LastError = lastError
	}
	return nil
}

func (s *claimService) dispatch(ctx context.Context, kind jobs.Kind, targetID string) {
	if s.dispatcher == nil {
		return
	}
	if _, err := s.dispatcher.Dispatch(ctx, kind, targetID); err != nil {
		logger.Get().Warnw("recalculation dispatch failed",
			"kind", kind,
			"target_id", targetID,
			"error", err,
		)
	}
}

// traceAppError maps tracing failures onto API errors.
func traceAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var te *tracer.Error
	if !errors.As(err, &te) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sentinel := apperrors.ErrInternalServer
	switch te.Kind {
	case tracer.KindInvalidInput:
		sentinel = apperrors.ErrInvalidInput
	case tracer.KindDataUnavailable:
		sentinel = apperrors.ErrDataUnavailable
	case tracer.KindOrderingConflict:
		sentinel = apperrors.ErrOrderingConflict
	case tracer.KindArithmeticInvariant:
		sentinel = apperrors.ErrArithmeticInvariant
	case tracer.KindRangeExceeded:
		sentinel = apperrors.ErrTraceRangeExceeded
	}
	wrapped := apperrors.Wrap(sentinel, err)
	wrapped.Message = te.Msg
	return wrapped
}
