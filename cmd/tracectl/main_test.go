package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exitprotocol/internal/models"
	"exitprotocol/internal/services"
)

const sampleStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240201120000
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>0001234
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101
<DTEND>20240131
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115
<TRNAMT>-400.00
<FITID>FIT-1
<NAME>Rent
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>600.00
<DTASOF>20240131
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

// setupCLI points the commands at a fresh sqlite file and seeds an account
// holding a 1000.00 claim deposited on 2024-01-01.
func setupCLI(t *testing.T) (*app, *models.Account, *models.Claim) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("db_driver", "sqlite")
	viper.Set("sqlite_path", filepath.Join(t.TempDir(), "tracectl.db"))
	viper.Set("trace_max_days", 20000)
	viper.Set("env", "test")

	a, cleanup, err := openApp()
	require.NoError(t, err)
	t.Cleanup(cleanup)

	account, err := a.accounts.CreateAccount(services.AccountInput{
		Name:        "Joint Checking",
		Institution: "First Bank",
		Type:        models.AccountTypeChecking,
	})
	require.NoError(t, err)

	claim, err := a.claims.CreateClaim(context.Background(), account.ID, services.ClaimInput{
		Name:               "Inheritance",
		SourceType:         models.SourceInheritance,
		InitialDepositDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		InitialAmount:      decimal.RequireFromString("1000"),
		RecordDeposit:      true,
	})
	require.NoError(t, err)

	return a, account, claim
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRecalcClaim(t *testing.T) {
	_, _, claim := setupCLI(t)

	out, err := execute(t, "recalc-claim", claim.ID)
	require.NoError(t, err)

	var result services.ClaimResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.StatusComplete, result.Status)
	assert.True(t, result.Traceable.Equal(decimal.RequireFromString("1000")), "traceable %s", result.Traceable)
}

func TestRecalcClaim_Unknown(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "recalc-claim", "0190a1b2-0000-7000-8000-000000000000")
	assert.Error(t, err)
}

func TestRecalcAccount(t *testing.T) {
	_, account, _ := setupCLI(t)

	out, err := execute(t, "recalc-account", account.ID)
	require.NoError(t, err)

	var results []services.ClaimResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 1)
}

func TestReport(t *testing.T) {
	_, _, claim := setupCLI(t)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "report", claim.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "Inheritance (inheritance)")
		assert.Contains(t, out, "$1,000.00")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "report", "--json", claim.ID)
		require.NoError(t, err)

		var rep map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		assert.Equal(t, claim.ID, rep["claim_id"])
		assert.Equal(t, "full_retention", rep["category"])
	})
}

func TestImportOFX(t *testing.T) {
	a, account, claim := setupCLI(t)

	path := filepath.Join(t.TempDir(), "statement.ofx")
	require.NoError(t, writeFile(path, sampleStatement))

	out, err := execute(t, "import-ofx", account.ID, path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 imported, 0 skipped")

	// Importing the same statement again skips the known FITID.
	out, err = execute(t, "import-ofx", account.ID, path)
	require.NoError(t, err)
	assert.Contains(t, out, "0 imported, 1 skipped")

	reloaded, err := a.claims.GetClaimByID(claim.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.CurrentTraceableAmount.Equal(decimal.RequireFromString("600")),
		"traceable %s", reloaded.CurrentTraceableAmount)

	t.Run("dry_run", func(t *testing.T) {
		out, err := execute(t, "import-ofx", "--dry-run", account.ID, path)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "1 transactions (dry run)"))
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := execute(t, "import-ofx", account.ID, filepath.Join(t.TempDir(), "nope.ofx"))
		assert.Error(t, err)
	})
}

func TestChart(t *testing.T) {
	_, account, claim := setupCLI(t)
	_, err := execute(t, "recalc-claim", claim.ID)
	require.NoError(t, err)

	out, err := execute(t, "chart", account.ID)
	require.NoError(t, err)

	var series services.ChartSeries
	require.NoError(t, json.Unmarshal([]byte(out), &series))
	assert.Equal(t, account.ID, series.AccountID)
	assert.NotEmpty(t, series.Dates)
}
