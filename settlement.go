package accounting

import (
	"time"

	"github.com/etnz/accounting/date"
	"github.com/shopspring/decimal"
)

// UnsettledCashAmount is a sale proceed waiting for its settlement instant.
// It is created by a delayed settlement model, consumed exactly once by the
// ledger's settlement scan, and never mutated.
type UnsettledCashAmount struct {
	SettlementTimeUTC time.Time
	Currency          string
	Amount            decimal.Decimal
}

// SettlementModel decides when funds applied to the portfolio become
// spendable cash. The model is selected per security at configuration time;
// the "state machine" is simply which variant is installed.
type SettlementModel interface {
	// ApplyFunds applies a cash change to the portfolio on behalf of the
	// security, at the given application time.
	ApplyFunds(p *Portfolio, s *Security, appliedAtUTC time.Time, amount CashAmount)
}

// ImmediateSettlementModel posts funds straight to the settled cash book.
// It is the default model, and the behavior every model uses for debits:
// funds committed to a purchase are reserved immediately regardless of the
// settlement convention.
type ImmediateSettlementModel struct{}

// ApplyFunds implements SettlementModel.
func (ImmediateSettlementModel) ApplyFunds(p *Portfolio, s *Security, appliedAtUTC time.Time, amount CashAmount) {
	p.CashBook().Ensure(amount.Currency).AddAmount(amount.Amount)
}

// DelayedSettlementModel defers sale proceeds by a number of trading days
// (T+N). Credits are posted to the unsettled book immediately, so valuation
// reflects the sale at once, and queued for settlement at the configured
// time of day N open days later. Debits settle immediately.
type DelayedSettlementModel struct {
	// NumberOfDays is the N of T+N, counted in venue trading days. Zero
	// settles on the trade date itself (or the next open day).
	NumberOfDays int
	// TimeOfDay is the intra-day settlement offset in the venue's local
	// time, e.g. 8h for 8 AM.
	TimeOfDay time.Duration
}

// ApplyFunds implements SettlementModel.
func (m DelayedSettlementModel) ApplyFunds(p *Portfolio, s *Security, appliedAtUTC time.Time, amount CashAmount) {
	if !amount.Amount.IsPositive() {
		// debits are reserved immediately
		p.CashBook().Ensure(amount.Currency).AddAmount(amount.Amount)
		return
	}

	p.UnsettledCashBook().Ensure(amount.Currency).AddAmount(amount.Amount)

	settlementDate := m.settlementDate(date.FromTime(appliedAtUTC, s.Location()), s.Calendar())
	p.AddUnsettledCashAmount(UnsettledCashAmount{
		SettlementTimeUTC: settlementDate.At(m.TimeOfDay, s.Location()),
		Currency:          amount.Currency,
		Amount:            amount.Amount,
	})
}

// settlementDate walks forward from the trade date until NumberOfDays open
// days have elapsed, skipping closed days without advancing the count, and
// never lands on a closed day.
func (m DelayedSettlementModel) settlementDate(tradeDate date.Date, cal MarketCalendar) date.Date {
	d := tradeDate
	for n := 0; n < m.NumberOfDays; {
		d = d.Add(1)
		if cal.IsOpenOn(d) {
			n++
		}
	}
	// T+0 (or a degenerate calendar) may leave us on a closed day.
	for !cal.IsOpenOn(d) {
		d = d.Add(1)
	}
	return d
}
