package accounting

import "github.com/shopspring/decimal"

// Holding tracks the position held in a single security: signed quantity and
// average acquisition price. Valuation-related figures are derived from the
// security's last market price.
type Holding struct {
	security     *Security
	quantity     decimal.Decimal
	averagePrice decimal.Decimal
}

func newHolding(s *Security) *Holding { return &Holding{security: s} }

// Quantity returns the signed number of units held (negative when short).
func (h *Holding) Quantity() decimal.Decimal { return h.quantity }

// AveragePrice returns the average acquisition price of the position.
func (h *Holding) AveragePrice() decimal.Decimal { return h.averagePrice }

// SetHoldings replaces the position in one operation, as fills and corporate
// actions do.
func (h *Holding) SetHoldings(averagePrice, quantity decimal.Decimal) {
	h.averagePrice = averagePrice
	h.quantity = quantity
}

// Invested reports whether any position is held.
func (h *Holding) Invested() bool { return !h.quantity.IsZero() }

// IsShort reports whether the position is a short one.
func (h *Holding) IsShort() bool { return h.quantity.IsNegative() }

// HoldingsCost returns the cost of the position at its average price.
func (h *Holding) HoldingsCost() decimal.Decimal { return h.averagePrice.Mul(h.quantity) }

// AbsoluteHoldingsCost returns the unsigned cost of the position.
func (h *Holding) AbsoluteHoldingsCost() decimal.Decimal { return h.HoldingsCost().Abs() }

// HoldingsValue returns the position marked at the last market price.
func (h *Holding) HoldingsValue() decimal.Decimal { return h.security.Price().Mul(h.quantity) }

// AbsoluteHoldingsValue returns the unsigned marked value of the position.
func (h *Holding) AbsoluteHoldingsValue() decimal.Decimal { return h.HoldingsValue().Abs() }

// UnrealizedProfit returns the profit if the position were closed at the
// last market price. Fees are accounted by the external fee model when the
// position actually closes.
func (h *Holding) UnrealizedProfit() decimal.Decimal {
	return h.security.Price().Sub(h.averagePrice).Mul(h.quantity)
}

// GetQuantityValue returns the market value of an arbitrary quantity of this
// security at the last price.
func (h *Holding) GetQuantityValue(quantity decimal.Decimal) decimal.Decimal {
	return h.security.Price().Mul(quantity)
}
