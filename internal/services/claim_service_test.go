package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/report"
	"exitprotocol/internal/testutil"
)

func claimInput(amount string, record bool) ClaimInput {
	return ClaimInput{
		Name:               "Inheritance from estate",
		SourceType:         models.SourceInheritance,
		InitialDepositDate: day0,
		InitialAmount:      decimal.RequireFromString(amount),
		RecordDeposit:      record,
	}
}

func TestCreateClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("records_deposit_when_missing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)

		claim, err := svc.claims.CreateClaim(ctx, account.ID, claimInput("100000", true))
		testutil.AssertNoError(t, err)

		if claim.CalculationStatus != models.StatusPending {
			t.Errorf("expected pending claim, got %s", claim.CalculationStatus)
		}

		var deposits []models.Transaction
		db.Where("claim_id = ?", claim.ID).Find(&deposits)
		if len(deposits) != 1 {
			t.Fatalf("expected 1 linked deposit, got %d", len(deposits))
		}
		testutil.AssertDecimal(t, deposits[0].Amount, "100000", "deposit amount")
		if !deposits[0].IsSeparateProperty {
			t.Error("expected deposit to be flagged as separate property")
		}
	})

	t.Run("links_matching_ledger_deposit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		testutil.CreateTestTransaction(t, db, account.ID, day0, "250")
		existing := testutil.CreateTestTransaction(t, db, account.ID, day0, "100000")

		claim, err := svc.claims.CreateClaim(ctx, account.ID, claimInput("100000", true))
		testutil.AssertNoError(t, err)

		var txn models.Transaction
		db.First(&txn, "id = ?", existing.ID)
		if txn.ClaimID == nil || *txn.ClaimID != claim.ID {
			t.Errorf("expected existing deposit to be linked to claim %s", claim.ID)
		}

		var count int64
		db.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&count)
		if count != 2 {
			t.Errorf("expected no extra deposit to be recorded, found %d transactions", count)
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)

		in := claimInput("0", false)
		_, err := svc.claims.CreateClaim(ctx, account.ID, in)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		in = claimInput("10", false)
		in.SourceType = "lottery"
		_, err = svc.claims.CreateClaim(ctx, account.ID, in)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.claims.CreateClaim(ctx, "00000000-0000-0000-0000-000000000000", claimInput("10", false))
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("dispatches_first_calculation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, true, 0)
		account := testutil.CreateTestAccount(t, db)

		claim, err := svc.claims.CreateClaim(ctx, account.ID, claimInput("5000", true))
		testutil.AssertNoError(t, err)

		stored := reloadClaim(t, db, claim.ID)
		if stored.CalculationStatus != models.StatusComplete {
			t.Errorf("expected claim to be calculated on creation, got %s", stored.CalculationStatus)
		}
	})
}

func TestCalculate(t *testing.T) {
	ctx := context.Background()

	t.Run("no_transactions_after_deposit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("100000", true))

		res, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, res.Traceable, "100000", "traceable")
		testutil.AssertDecimal(t, res.RetentionPct, "100", "retention")
		if res.DaysRecorded != 1 {
			t.Errorf("expected 1 snapshot day, got %d", res.DaysRecorded)
		}

		stored := reloadClaim(t, db, claim.ID)
		if stored.CalculationStatus != models.StatusComplete {
			t.Errorf("expected complete, got %s", stored.CalculationStatus)
		}
		if stored.LastCalculatedAt == nil {
			t.Error("expected last_calculated_at to be set")
		}
	})

	t.Run("dip_then_recovery", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		testutil.CreateTestTransaction(t, db, account.ID, day0, "100000")
		testutil.CreateTestTransaction(t, db, account.ID, on(5), "-40000")
		testutil.CreateTestTransaction(t, db, account.ID, on(10), "-30000")
		testutil.CreateTestTransaction(t, db, account.ID, on(20), "60000")
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("100000", true))

		res, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, res.Traceable, "30000", "traceable")
		if res.LowestBalanceDate != "2024-01-11" {
			t.Errorf("expected lowest balance date 2024-01-11, got %s", res.LowestBalanceDate)
		}

		snaps := snapshotsFor(t, db, account.ID)
		if len(snaps) != 21 {
			t.Fatalf("expected 21 snapshots, got %d", len(snaps))
		}
		for _, s := range snaps {
			if !s.SeparateBalance.Add(s.MaritalBalance).Equal(s.TotalBalance) {
				t.Errorf("%s: separate %s + marital %s != total %s",
					s.SnapshotDate.Format("2006-01-02"), s.SeparateBalance, s.MaritalBalance, s.TotalBalance)
			}
		}
		last := snaps[len(snaps)-1]
		testutil.AssertDecimal(t, last.TotalBalance, "90000", "final total")
		testutil.AssertDecimal(t, last.SeparateBalance, "30000", "final separate")
		testutil.AssertDecimal(t, last.MaritalBalance, "60000", "final marital")
		if !snaps[10].IsDipPoint || snaps[11].IsDipPoint {
			t.Error("expected only dip days to be flagged")
		}

		rep, err := svc.claims.GetReport(claim.ID)
		testutil.AssertNoError(t, err)
		if rep.Category != report.CategoryPartial {
			t.Errorf("expected partial narrative, got %s", rep.Category)
		}
		testutil.AssertDecimal(t, rep.RetentionPct, "30", "retention")

		var acct models.Account
		db.First(&acct, "id = ?", account.ID)
		testutil.AssertDecimal(t, acct.CurrentBalance, "90000", "current balance")
	})

	t.Run("overdraft_clamps_to_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("50000", true))
		testutil.CreateTestTransaction(t, db, account.ID, on(1), "-60000")

		res, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, res.Traceable, "0", "traceable")
		testutil.AssertDecimal(t, res.LowestBalance, "-10000", "lowest balance")

		rep, _ := svc.claims.GetReport(claim.ID)
		if rep.Category != report.CategoryFullLoss {
			t.Errorf("expected full loss narrative, got %s", rep.Category)
		}
	})

	t.Run("same_day_sequence_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		testutil.CreateTestTransactionWithSequence(t, db, account.ID, day0, "50000", 1)
		// Inserted first but sequenced last.
		testutil.CreateTestTransactionWithSequence(t, db, account.ID, on(1), "30000", 3)
		testutil.CreateTestTransactionWithSequence(t, db, account.ID, on(1), "-40000", 2)
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("50000", false))

		res, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, res.Traceable, "10000", "traceable")
	})

	t.Run("marital_funds_spent_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		testutil.CreateTestTransaction(t, db, account.ID, on(-30), "20000")
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("50000", true))
		testutil.CreateTestTransaction(t, db, account.ID, on(3), "-15000")

		res, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, res.Traceable, "50000", "traceable")

		testutil.CreateTestTransaction(t, db, account.ID, on(4), "-15000")
		res, err = svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, res.Traceable, "40000", "traceable")
	})

	t.Run("deposit_not_in_ledger_is_credited", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("1000", false))
		testutil.CreateTestTransaction(t, db, account.ID, on(2), "-400")

		res, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, res.Traceable, "600", "traceable")
	})

	t.Run("stamps_running_balances", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("1000", true))
		w := testutil.CreateTestTransaction(t, db, account.ID, on(1), "-250")

		_, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)

		var txn models.Transaction
		db.First(&txn, "id = ?", w.ID)
		if !txn.RunningBalance.Valid {
			t.Fatal("expected running balance to be stamped")
		}
		testutil.AssertDecimal(t, txn.RunningBalance.Decimal, "750", "running balance")
	})

	t.Run("idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("1000", true))
		testutil.CreateTestTransaction(t, db, account.ID, on(3), "-700")

		first, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)
		firstSnaps := snapshotsFor(t, db, account.ID)

		second, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)
		secondSnaps := snapshotsFor(t, db, account.ID)

		if !first.Traceable.Equal(second.Traceable) || !first.LowestBalance.Equal(second.LowestBalance) ||
			first.LowestBalanceDate != second.LowestBalanceDate {
			t.Errorf("results differ between runs: %+v vs %+v", first, second)
		}
		if len(firstSnaps) != len(secondSnaps) {
			t.Errorf("expected %d snapshot rows after rerun, got %d", len(firstSnaps), len(secondSnaps))
		}
		for i := range firstSnaps {
			if firstSnaps[i].ID != secondSnaps[i].ID {
				t.Errorf("snapshot %d was recreated instead of updated", i)
			}
		}
	})

	t.Run("failure_keeps_previous_results", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 30)
		account := testutil.CreateTestAccount(t, db)
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("1000", true))
		testutil.CreateTestTransaction(t, db, account.ID, on(5), "-300")

		_, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)

		testutil.CreateTestTransaction(t, db, account.ID, on(90), "-600")
		res, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertAppError(t, err, "TRACE_RANGE_EXCEEDED")
		if res == nil || res.Status != models.StatusError {
			t.Fatalf("expected an error result, got %+v", res)
		}

		stored := reloadClaim(t, db, claim.ID)
		if stored.CalculationStatus != models.StatusError {
			t.Errorf("expected error status, got %s", stored.CalculationStatus)
		}
		if stored.LastError == "" {
			t.Error("expected last_error to be recorded")
		}
		testutil.AssertDecimal(t, stored.CurrentTraceableAmount, "700", "cached traceable")

		rep, _ := svc.claims.GetReport(claim.ID)
		if !rep.RecalculationFailed {
			t.Error("expected report to flag the failed recalculation")
		}
		if rep.Narrative != report.PendingNarrative {
			t.Errorf("expected pending narrative, got %q", rep.Narrative)
		}
	})

	t.Run("unknown_claim", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)

		_, err := svc.claims.Calculate(ctx, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "CLAIM_NOT_FOUND")
	})

	t.Run("concurrent_runs_do_not_interleave", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)
		account := testutil.CreateTestAccount(t, db)
		claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("1000", true))
		for i := 1; i <= 10; i++ {
			testutil.CreateTestTransaction(t, db, account.ID, on(i), "-50")
		}

		var wg sync.WaitGroup
		errs := make(chan error, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.claims.Calculate(ctx, claim.ID); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent calculation failed: %v", err)
		}

		stored := reloadClaim(t, db, claim.ID)
		testutil.AssertDecimal(t, stored.CurrentTraceableAmount, "500", "traceable")
		if n := len(snapshotsFor(t, db, account.ID)); n != 11 {
			t.Errorf("expected 11 snapshot rows, got %d", n)
		}
	})
}

func TestCalculateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("continues_past_failures_in_creation_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 60)
		account := testutil.CreateTestAccount(t, db)

		testutil.CreateTestTransaction(t, db, account.ID, on(-100), "5000")
		early := claimInput("5000", false)
		early.Name = "Premarital savings"
		early.InitialDepositDate = on(-100)
		failing, _ := svc.claims.CreateClaim(ctx, account.ID, early)

		ok, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("1000", true))
		testutil.CreateTestTransaction(t, db, account.ID, on(30), "-200")

		results, err := svc.claims.CalculateAll(ctx, account.ID)
		testutil.AssertNoError(t, err)

		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].ClaimID != failing.ID || results[0].Status != models.StatusError {
			t.Errorf("expected first result to be the failing claim, got %+v", results[0])
		}
		if results[1].ClaimID != ok.ID || results[1].Status != models.StatusComplete {
			t.Errorf("expected second result to be complete, got %+v", results[1])
		}
		if reloadClaim(t, db, ok.ID).CalculationStatus != models.StatusComplete {
			t.Error("expected batch to continue after a failing claim")
		}
	})

	t.Run("unknown_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db, false, 0)

		_, err := svc.claims.CalculateAll(ctx, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestGetReport(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestServices(db, false, 0)
	account := testutil.CreateTestAccount(t, db)
	claim, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("100000", true))

	t.Run("pending_before_first_calculation", func(t *testing.T) {
		rep, err := svc.claims.GetReport(claim.ID)
		testutil.AssertNoError(t, err)
		if rep.Narrative != report.PendingNarrative {
			t.Errorf("expected pending narrative, got %q", rep.Narrative)
		}
		if rep.AccountName != account.Name {
			t.Errorf("expected account name %q, got %q", account.Name, rep.AccountName)
		}
	})

	t.Run("full_retention_after_calculation", func(t *testing.T) {
		_, err := svc.claims.Calculate(ctx, claim.ID)
		testutil.AssertNoError(t, err)

		rep, err := svc.claims.GetReport(claim.ID)
		testutil.AssertNoError(t, err)
		want := "Success: The entire $100,000.00 remains traceable. The account never dipped below this amount."
		if rep.Narrative != want {
			t.Errorf("expected %q, got %q", want, rep.Narrative)
		}
	})

	t.Run("unknown_claim", func(t *testing.T) {
		_, err := svc.claims.GetReport("00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "CLAIM_NOT_FOUND")
	})
}

func TestGetAccountClaimsAndDelete(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestServices(db, false, 0)
	account := testutil.CreateTestAccount(t, db)

	first, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("100", true))
	second, _ := svc.claims.CreateClaim(ctx, account.ID, claimInput("200", true))
	_, err := svc.claims.Calculate(ctx, second.ID)
	testutil.AssertNoError(t, err)

	page, err := svc.claims.GetAccountClaims(account.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 2 || page.Data[0].ID != first.ID {
		t.Fatalf("expected claims in creation order, got %+v", page.Data)
	}

	testutil.AssertNoError(t, svc.claims.DeleteClaim(second.ID))

	_, err = svc.claims.GetClaimByID(second.ID)
	testutil.AssertAppError(t, err, "CLAIM_NOT_FOUND")

	var linked int64
	db.Model(&models.Transaction{}).Where("claim_id = ?", second.ID).Count(&linked)
	if linked != 0 {
		t.Errorf("expected deposit to be unlinked, %d still linked", linked)
	}
	if n := len(snapshotsFor(t, db, account.ID)); n != 0 {
		t.Errorf("expected snapshots to be cleared, got %d", n)
	}
}
