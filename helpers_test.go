package accounting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// equalDec asserts that a decimal has the exact value want (numeric
// equality, not representation equality).
func equalDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)),
		"decimal mismatch: got %s want %s %v", got, want, msgAndArgs)
}

// newTestSecurity registers a priced security on the registry.
func newTestSecurity(t *testing.T, reg *SecurityRegistry, symbol string, secType SecurityType, price string) *Security {
	t.Helper()
	s := NewSecurity(NewSymbol(symbol), secType, "USD")
	s.SetMarketPrice(decimal.RequireFromString(price))
	require.NoError(t, reg.Add(s))
	return s
}

// stubFillApplier records the fills it receives and optionally applies
// funds through the security's settlement model, like the external
// cash-fill strategy does.
type stubFillApplier struct {
	fills      []Fill
	applyFunds bool
	err        error
}

func (a *stubFillApplier) ApplyFill(p *Portfolio, s *Security, fill Fill) error {
	a.fills = append(a.fills, fill)
	if a.err != nil {
		return a.err
	}
	if a.applyFunds {
		proceeds := fill.Price.Mul(fill.Quantity).Neg()
		s.Settlement().ApplyFunds(p, s, fill.TimeUTC, NewCashAmount(proceeds, s.QuoteCurrency()))
	}
	return nil
}

// stubOrderProcessor accepts or rejects submitted orders by symbol.
type stubOrderProcessor struct {
	reject    map[Symbol]bool
	submitted []Order
}

func (o *stubOrderProcessor) Submit(order Order) (*OrderTicket, error) {
	o.submitted = append(o.submitted, order)
	if o.reject[order.Symbol] {
		return &OrderTicket{OrderID: order.ID, Status: OrderRejected}, nil
	}
	return &OrderTicket{OrderID: order.ID, Status: OrderAccepted}, nil
}
