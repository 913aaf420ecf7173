package importer

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"exitprotocol/internal/logger"
	"exitprotocol/internal/models"
)

// Statement is what an OFX file yielded. Warnings are surfaced to the caller
// instead of failing the import.
type Statement struct {
	AccountIDs []string
	Records    []Record
	Warnings   []string
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes formatting quirks some banks emit that ofxgo rejects.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseOFX reads bank and credit card statements from an OFX/QFX document.
func ParseOFX(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	for _, msg := range resp.Bank {
		if bank, ok := msg.(*ofxgo.StatementResponse); ok {
			stmt.AccountIDs = append(stmt.AccountIDs, string(bank.BankAcctFrom.AcctID))
			stmt.collect(bank.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if cc, ok := msg.(*ofxgo.CCStatementResponse); ok {
			stmt.AccountIDs = append(stmt.AccountIDs, string(cc.CCAcctFrom.AcctID))
			stmt.collect(cc.BankTranList)
		}
	}

	if len(stmt.Records) == 0 {
		stmt.Warnings = append(stmt.Warnings, "no transactions found in statement")
	}
	if len(stmt.AccountIDs) > 1 {
		stmt.Warnings = append(stmt.Warnings,
			fmt.Sprintf("statement covers %d accounts; all transactions were imported into one", len(stmt.AccountIDs)))
	}

	logger.Get().Infow("Parsed OFX statement",
		"transactions", len(stmt.Records),
		"accounts", len(stmt.AccountIDs),
		"warnings", len(stmt.Warnings),
	)
	return stmt, nil
}

func (s *Statement) collect(list *ofxgo.TransactionList) {
	if list == nil {
		return
	}
	for _, t := range list.Transactions {
		rec, err := convertOFX(t)
		if err != nil {
			s.Warnings = append(s.Warnings, fmt.Sprintf("skipped %s: %v", t.FiTID, err))
			continue
		}
		s.Records = append(s.Records, rec)
	}
}

func convertOFX(t ofxgo.Transaction) (Record, error) {
	amount, err := decimal.NewFromString(t.TrnAmt.FloatString(2))
	if err != nil {
		return Record{}, fmt.Errorf("bad amount: %w", err)
	}
	if t.DtPosted.IsZero() {
		return Record{}, fmt.Errorf("missing posted date")
	}

	name := string(t.Name)
	if t.Payee != nil && t.Payee.Name != "" {
		name = string(t.Payee.Name)
	}
	if name == "" {
		name = string(t.Memo)
	}

	return Record{
		ExternalID:  string(t.FiTID),
		Date:        models.NormalizeDate(t.DtPosted.Time),
		Description: Describe(name),
		Amount:      amount,
		Type:        typeForOFX(fmt.Sprint(t.TrnType), amount),
		Category:    "uncategorized",
		Memo:        string(t.Memo),
		CheckNumber: string(t.CheckNum),
	}, nil
}

// typeForOFX maps an OFX TRNTYPE onto the ledger's transaction types.
func typeForOFX(trnType string, amount decimal.Decimal) models.TransactionType {
	switch strings.ToUpper(trnType) {
	case "INT":
		return models.TransactionTypeInterest
	case "DIV":
		return models.TransactionTypeDividend
	case "FEE", "SRVCHG":
		return models.TransactionTypeFee
	case "XFER":
		if amount.IsNegative() {
			return models.TransactionTypeTransferOut
		}
		return models.TransactionTypeTransferIn
	}
	return TypeForAmount(amount)
}
