package accounting

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// currencyCodeRegex checks for the format: 3 uppercase letters.
var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// NormalizeCurrency upper-cases a currency code. Codes are case-normalized
// once on insert so the cash books never hold two entries for the same
// currency.
func NormalizeCurrency(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

// ValidateCurrency checks that a string is a plausible ISO-4217 currency
// code. Codes unknown to the ISO registry (e.g. crypto symbols) are accepted
// as long as they have the 3-uppercase-letter shape.
func ValidateCurrency(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid currency format: must be 3 uppercase letters, got %q", code)
	}
	return nil
}

// CashAmount is an amount of cash denominated in a single currency. It is a
// pure value: converting it to account currency is the cash book's job.
type CashAmount struct {
	Amount   decimal.Decimal
	Currency string
}

// NewCashAmount returns a CashAmount with a normalized currency code.
func NewCashAmount(amount decimal.Decimal, currency string) CashAmount {
	return CashAmount{Amount: amount, Currency: NormalizeCurrency(currency)}
}

// Cash models the holding of a single currency: its balance and the
// conversion rate into the account currency. A Cash entry is created on the
// first reference to its currency and never removed afterwards.
type Cash struct {
	symbol         string
	amount         decimal.Decimal
	conversionRate decimal.Decimal

	// updated is wired by the owning CashBook; every mutation calls it,
	// whether or not the numeric value changed, so the ledger's cache
	// invalidation stays conservative.
	updated func()
}

// NewCash creates a standalone cash entry. Entries held by a CashBook are
// normally created through CashBook.Add or CashBook.Ensure instead.
func NewCash(symbol string, amount, conversionRate decimal.Decimal) *Cash {
	return &Cash{
		symbol:         NormalizeCurrency(symbol),
		amount:         amount,
		conversionRate: conversionRate,
	}
}

// Symbol returns the currency code of this entry.
func (c *Cash) Symbol() string { return c.symbol }

// Amount returns the current balance in the entry's own currency.
func (c *Cash) Amount() decimal.Decimal { return c.amount }

// ConversionRate returns the rate converting this currency into the account
// currency. The rate is maintained by an external currency converter.
func (c *Cash) ConversionRate() decimal.Decimal { return c.conversionRate }

// ValueInAccountCurrency returns amount × conversionRate.
func (c *Cash) ValueInAccountCurrency() decimal.Decimal {
	return c.amount.Mul(c.conversionRate)
}

// AddAmount adds delta to the balance and fires the book's update hook.
func (c *Cash) AddAmount(delta decimal.Decimal) {
	c.amount = c.amount.Add(delta)
	c.notify()
}

// SetAmount replaces the balance and fires the book's update hook.
func (c *Cash) SetAmount(amount decimal.Decimal) {
	c.amount = amount
	c.notify()
}

// SetConversionRate replaces the conversion rate and fires the book's update
// hook: a rate change moves the account-currency valuation just like an
// amount change does.
func (c *Cash) SetConversionRate(rate decimal.Decimal) {
	c.conversionRate = rate
	c.notify()
}

func (c *Cash) notify() {
	if c.updated != nil {
		c.updated()
	}
}

// String renders the entry using the ISO currency formatter when the code is
// known, e.g. "$104,050.20 @ 1". Unknown codes fall back to a plain layout.
func (c *Cash) String() string {
	cur := money.GetCurrency(c.symbol)
	if cur == nil {
		return fmt.Sprintf("%s %s @ %s", c.symbol, c.amount, c.conversionRate)
	}
	minor := c.amount.Shift(int32(cur.Fraction))
	return fmt.Sprintf("%s @ %s", cur.Formatter().Format(minor.IntPart()), c.conversionRate)
}
