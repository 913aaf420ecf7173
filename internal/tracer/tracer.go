// Package tracer implements the lowest intermediate balance rule for tracing
// separate property through a commingled account.
//
// The trace is a single sequential pass. It starts from the account balance the
// day before the claimed deposit, applies every later entry in (date, sequence)
// order and lowers the traceable ceiling whenever the running balance drops
// below it. The ceiling never rises again, even when the balance recovers.
package tracer

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMaxDays bounds the day-by-day composition walk.
const DefaultMaxDays = 20000

// Entry is one ledger movement as the tracer sees it.
type Entry struct {
	ID          string
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Sequence    int64
}

// Input describes one claim to trace.
type Input struct {
	InitialAmount decimal.Decimal
	StartDate     time.Time

	// OpeningBalance is the account balance at the end of StartDate - 1 day.
	OpeningBalance decimal.Decimal

	// Entries dated on or after StartDate, in any order.
	Entries []Entry

	// AddDeposit credits InitialAmount on StartDate before any entry is applied.
	// Set it when the claimed deposit is not itself recorded in Entries.
	AddDeposit bool

	// MaxDays caps the number of calendar days composed. Zero means DefaultMaxDays.
	MaxDays int
}

// DipEvent records a day on which the ceiling was lowered.
type DipEvent struct {
	Date        time.Time       `json:"date"`
	Ceiling     decimal.Decimal `json:"ceiling"`
	Description string          `json:"description"`
	EntryID     string          `json:"entry_id,omitempty"`
}

// Composition is the split of the account balance at the end of one day.
type Composition struct {
	Date     time.Time       `json:"date"`
	Total    decimal.Decimal `json:"total"`
	Separate decimal.Decimal `json:"separate"`
	Marital  decimal.Decimal `json:"marital"`
	IsDip    bool            `json:"is_dip"`
}

// Result is the outcome of a trace.
type Result struct {
	InitialAmount decimal.Decimal
	Traceable     decimal.Decimal

	// LowestBalance is the lowest ceiling reached, unclamped. It equals the
	// initial amount when no dip occurred.
	LowestBalance     decimal.Decimal
	LowestBalanceDate time.Time

	FinalBalance decimal.Decimal
	Dips         []DipEvent

	// Days holds one composition per calendar day from StartDate to the last
	// entry date, in date order.
	Days []Composition

	// RunningBalances maps entry ID to the balance right after that entry.
	RunningBalances map[string]decimal.Decimal
}

// Trace runs the lowest intermediate balance walk.
func Trace(in Input) (*Result, error) {
	if !in.InitialAmount.IsPositive() {
		return nil, newError(KindInvalidInput, "initial amount must be positive, got %s", in.InitialAmount)
	}
	if in.StartDate.IsZero() {
		return nil, newError(KindInvalidInput, "start date is required")
	}

	start := Day(in.StartDate)
	entries, err := order(in.Entries, start)
	if err != nil {
		return nil, err
	}

	end := start
	if n := len(entries); n > 0 && entries[n-1].Date.After(end) {
		end = entries[n-1].Date
	}
	maxDays := in.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	span := DaysBetween(start, end) + 1
	if span > maxDays {
		return nil, newError(KindRangeExceeded, "trace spans %d days, limit is %d", span, maxDays)
	}

	running := in.OpeningBalance
	if in.AddDeposit {
		running = running.Add(in.InitialAmount)
	}
	ceiling := in.InitialAmount

	res := &Result{
		InitialAmount:     in.InitialAmount,
		LowestBalance:     in.InitialAmount,
		LowestBalanceDate: start,
		Days:              make([]Composition, 0, span),
		RunningBalances:   make(map[string]decimal.Decimal, len(entries)),
	}

	i := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dipped := false
		for ; i < len(entries) && entries[i].Date.Equal(day); i++ {
			e := entries[i]
			running = running.Add(e.Amount)
			if running.LessThan(ceiling) {
				ceiling = running
				res.LowestBalance = ceiling
				res.LowestBalanceDate = day
				res.Dips = append(res.Dips, DipEvent{
					Date:        day,
					Ceiling:     ceiling,
					Description: e.Description,
					EntryID:     e.ID,
				})
				dipped = true
			}
			if e.ID != "" {
				res.RunningBalances[e.ID] = running
			}
		}
		res.Days = append(res.Days, compose(day, running, ceiling, dipped))
	}

	res.FinalBalance = running
	res.Traceable = decimal.Max(ceiling, decimal.Zero)
	if res.Traceable.IsNegative() || res.Traceable.GreaterThan(in.InitialAmount) {
		return nil, newError(KindArithmeticInvariant, "traceable %s outside [0, %s]", res.Traceable, in.InitialAmount)
	}
	return res, nil
}

// compose splits total into its separate and marital parts. Separate is capped
// by the ceiling and never negative; marital takes the remainder, so the two
// always sum to total (an overdraft is attributed to marital funds).
func compose(day time.Time, total, ceiling decimal.Decimal, dipped bool) Composition {
	separate := decimal.Max(decimal.Min(ceiling, total), decimal.Zero)
	return Composition{
		Date:     day,
		Total:    total,
		Separate: separate,
		Marital:  total.Sub(separate),
		IsDip:    dipped,
	}
}

// order returns a copy of entries normalized to calendar days and sorted by
// (date, sequence). Sequence numbers must be unique.
func order(entries []Entry, start time.Time) ([]Entry, error) {
	out := make([]Entry, len(entries))
	seen := make(map[int64]string, len(entries))
	for i, e := range entries {
		e.Date = Day(e.Date)
		if e.Date.Before(start) {
			return nil, newError(KindInvalidInput, "entry %q dated %s precedes start date %s",
				e.ID, e.Date.Format(DateLayout), start.Format(DateLayout))
		}
		if prev, dup := seen[e.Sequence]; dup {
			return nil, newError(KindOrderingConflict, "entries %q and %q share sequence number %d", prev, e.ID, e.Sequence)
		}
		seen[e.Sequence] = e.ID
		out[i] = e
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.Before(out[b].Date)
		}
		return out[a].Sequence < out[b].Sequence
	})
	return out, nil
}
