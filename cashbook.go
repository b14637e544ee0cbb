package accounting

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultAccountCurrency is the account currency a book starts with until
// the ledger overrides it during bootstrap.
const DefaultAccountCurrency = "USD"

// CashBook keeps track of the cash holdings of every currency in the
// account. It always contains an entry for the account currency, whose
// conversion rate is pinned to 1.
//
// The book notifies its observers on every mutation: entry creation, amount
// or rate change, and account currency change. Observers are registered at
// construction time (the portfolio ledger uses this to invalidate its
// valuation cache) and must not mutate the book.
type CashBook struct {
	accountCurrency string
	cash            map[string]*Cash
	updated         []func()
}

// NewCashBook creates a book holding a zero balance in the default account
// currency.
func NewCashBook() *CashBook {
	b := &CashBook{cash: make(map[string]*Cash)}
	b.setAccountCurrency(DefaultAccountCurrency)
	return b
}

// OnUpdated registers fn to be called after every mutation of the book.
func (b *CashBook) OnUpdated(fn func()) { b.updated = append(b.updated, fn) }

// AccountCurrency returns the currency every balance converts into.
func (b *CashBook) AccountCurrency() string { return b.accountCurrency }

// setAccountCurrency re-anchors the book on a new account currency, dropping
// every existing entry. Only the ledger calls this, and only before any cash
// is set; gating the one-time semantics is the ledger's job.
func (b *CashBook) setAccountCurrency(code string) {
	code = NormalizeCurrency(code)
	b.accountCurrency = code
	b.cash = make(map[string]*Cash)
	entry := NewCash(code, decimal.Zero, decimal.NewFromInt(1))
	entry.updated = b.notify
	b.cash[code] = entry
	b.notify()
}

// Add creates or replaces the balance for a currency and returns the entry.
func (b *CashBook) Add(code string, amount, conversionRate decimal.Decimal) *Cash {
	entry := b.Ensure(code)
	entry.amount = amount
	entry.conversionRate = conversionRate
	b.notify()
	return entry
}

// Get returns the entry for a currency code if it exists.
func (b *CashBook) Get(code string) (*Cash, bool) {
	entry, ok := b.cash[NormalizeCurrency(code)]
	return entry, ok
}

// Ensure returns the entry for a currency, creating a zero entry on first
// reference. Created entries start with a zero conversion rate (the account
// currency is the exception, pinned at 1): the external currency converter
// owns rate discovery.
func (b *CashBook) Ensure(code string) *Cash {
	code = NormalizeCurrency(code)
	if entry, ok := b.cash[code]; ok {
		return entry
	}
	rate := decimal.Zero
	if code == b.accountCurrency {
		rate = decimal.NewFromInt(1)
	}
	entry := NewCash(code, decimal.Zero, rate)
	entry.updated = b.notify
	b.cash[code] = entry
	b.notify()
	return entry
}

// AccountCurrencyCash returns the entry anchored on the account currency.
func (b *CashBook) AccountCurrencyCash() *Cash { return b.cash[b.accountCurrency] }

// Len returns the number of currencies in the book.
func (b *CashBook) Len() int { return len(b.cash) }

// Currencies returns the currency codes of the book, sorted for determinism.
func (b *CashBook) Currencies() []string {
	codes := make([]string, 0, len(b.cash))
	for code := range b.cash {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// TotalValueInAccountCurrency sums every balance converted at its current
// rate: Σ amount × conversionRate.
func (b *CashBook) TotalValueInAccountCurrency() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range b.cash {
		total = total.Add(entry.ValueInAccountCurrency())
	}
	return total
}

func (b *CashBook) notify() {
	for _, fn := range b.updated {
		fn()
	}
}

// String renders one line per currency plus the converted total, for logs.
func (b *CashBook) String() string {
	var sb strings.Builder
	sb.WriteString("Symbol Amount @ ConversionRate\n")
	for _, code := range b.Currencies() {
		sb.WriteString(b.cash[code].String())
		sb.WriteByte('\n')
	}
	sb.WriteString("Total (" + b.accountCurrency + "): " + b.TotalValueInAccountCurrency().StringFixed(2))
	return sb.String()
}
