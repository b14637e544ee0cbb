package accounting

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotDerivative signals a programmer-contract violation: an underlying
// remap was requested on a security that has no underlying.
var ErrNotDerivative = errors.New("operation requires a derivative security with an underlying")

// InitialMarginParameters carries a query for the margin required to open a
// position of the given signed quantity.
type InitialMarginParameters struct {
	security *Security
	quantity decimal.Decimal
}

// NewInitialMarginParameters builds an initial margin query.
func NewInitialMarginParameters(security *Security, quantity decimal.Decimal) InitialMarginParameters {
	return InitialMarginParameters{security: security, quantity: quantity}
}

func (p InitialMarginParameters) Security() *Security       { return p.security }
func (p InitialMarginParameters) Quantity() decimal.Decimal { return p.quantity }

// ForUnderlying remaps the query onto the security's underlying, for
// derivative margin models that exercise into the underlying.
func (p InitialMarginParameters) ForUnderlying() (InitialMarginParameters, error) {
	u := p.security.Underlying()
	if u == nil {
		return InitialMarginParameters{}, fmt.Errorf("initial margin for %s: %w", p.security.Symbol(), ErrNotDerivative)
	}
	return NewInitialMarginParameters(u, p.quantity), nil
}

// MaintenanceMarginParameters carries a query for the margin required to
// keep a position open. Cost and value are snapshotted into the parameters
// so a model can price hypothetical quantities, not just current holdings.
type MaintenanceMarginParameters struct {
	security      *Security
	quantity      decimal.Decimal
	holdingsCost  decimal.Decimal
	holdingsValue decimal.Decimal
}

// NewMaintenanceMarginParameters builds a maintenance margin query from
// explicit figures.
func NewMaintenanceMarginParameters(security *Security, quantity, holdingsCost, holdingsValue decimal.Decimal) MaintenanceMarginParameters {
	return MaintenanceMarginParameters{
		security:      security,
		quantity:      quantity,
		holdingsCost:  holdingsCost,
		holdingsValue: holdingsValue,
	}
}

// ForCurrentHoldings builds the query for the security's current position.
func ForCurrentHoldings(security *Security) MaintenanceMarginParameters {
	h := security.Holdings()
	return NewMaintenanceMarginParameters(security, h.Quantity(), h.HoldingsCost(), h.HoldingsValue())
}

// ForQuantityAtCurrentPrice builds the query for a hypothetical quantity
// marked at the last price.
func ForQuantityAtCurrentPrice(security *Security, quantity decimal.Decimal) MaintenanceMarginParameters {
	value := security.Holdings().GetQuantityValue(quantity)
	return NewMaintenanceMarginParameters(security, quantity, value, value)
}

func (p MaintenanceMarginParameters) Security() *Security               { return p.security }
func (p MaintenanceMarginParameters) Quantity() decimal.Decimal         { return p.quantity }
func (p MaintenanceMarginParameters) AbsoluteQuantity() decimal.Decimal { return p.quantity.Abs() }
func (p MaintenanceMarginParameters) HoldingsCost() decimal.Decimal     { return p.holdingsCost }
func (p MaintenanceMarginParameters) AbsoluteHoldingsCost() decimal.Decimal {
	return p.holdingsCost.Abs()
}
func (p MaintenanceMarginParameters) HoldingsValue() decimal.Decimal { return p.holdingsValue }
func (p MaintenanceMarginParameters) AbsoluteHoldingsValue() decimal.Decimal {
	return p.holdingsValue.Abs()
}

// ForUnderlying remaps the query onto the security's underlying for the
// given quantity. It fails fast when the security is not a derivative.
func (p MaintenanceMarginParameters) ForUnderlying(quantity decimal.Decimal) (MaintenanceMarginParameters, error) {
	u := p.security.Underlying()
	if u == nil {
		return MaintenanceMarginParameters{}, fmt.Errorf("maintenance margin for %s: %w", p.security.Symbol(), ErrNotDerivative)
	}
	return ForQuantityAtCurrentPrice(u, quantity), nil
}

// BuyingPowerParameters carries a query for the currency available to open a
// position on the security in a direction.
type BuyingPowerParameters struct {
	portfolio *Portfolio
	security  *Security
	direction OrderDirection
}

// NewBuyingPowerParameters builds a buying power query.
func NewBuyingPowerParameters(portfolio *Portfolio, security *Security, direction OrderDirection) BuyingPowerParameters {
	return BuyingPowerParameters{portfolio: portfolio, security: security, direction: direction}
}

func (p BuyingPowerParameters) Portfolio() *Portfolio     { return p.portfolio }
func (p BuyingPowerParameters) Security() *Security       { return p.security }
func (p BuyingPowerParameters) Direction() OrderDirection { return p.direction }

// HasSufficientBuyingPowerForOrderParameters asks whether the account can
// support a contemplated order.
type HasSufficientBuyingPowerForOrderParameters struct {
	portfolio *Portfolio
	security  *Security
	order     Order
}

// NewHasSufficientBuyingPowerForOrderParameters builds the query.
func NewHasSufficientBuyingPowerForOrderParameters(portfolio *Portfolio, security *Security, order Order) HasSufficientBuyingPowerForOrderParameters {
	return HasSufficientBuyingPowerForOrderParameters{portfolio: portfolio, security: security, order: order}
}

func (p HasSufficientBuyingPowerForOrderParameters) Portfolio() *Portfolio { return p.portfolio }
func (p HasSufficientBuyingPowerForOrderParameters) Security() *Security   { return p.security }
func (p HasSufficientBuyingPowerForOrderParameters) Order() Order          { return p.order }

// ForUnderlying remaps the query onto the security's underlying with a new
// order targeting it. It fails fast when the security is not a derivative.
func (p HasSufficientBuyingPowerForOrderParameters) ForUnderlying(order Order) (HasSufficientBuyingPowerForOrderParameters, error) {
	u := p.security.Underlying()
	if u == nil {
		return HasSufficientBuyingPowerForOrderParameters{}, fmt.Errorf("buying power check for %s: %w", p.security.Symbol(), ErrNotDerivative)
	}
	return NewHasSufficientBuyingPowerForOrderParameters(p.portfolio, u, order), nil
}

// Sufficient builds the positive answer for this query.
func (p HasSufficientBuyingPowerForOrderParameters) Sufficient() HasSufficientBuyingPowerForOrderResult {
	return HasSufficientBuyingPowerForOrderResult{isSufficient: true}
}

// Insufficient builds the negative answer with a diagnostic reason.
func (p HasSufficientBuyingPowerForOrderParameters) Insufficient(reason string) HasSufficientBuyingPowerForOrderResult {
	return HasSufficientBuyingPowerForOrderResult{isSufficient: false, reason: reason}
}

// GetMaximumOrderQuantityForTargetBuyingPowerParameters asks for the largest
// order quantity that brings holdings to a target fraction of the portfolio
// buying power.
type GetMaximumOrderQuantityForTargetBuyingPowerParameters struct {
	portfolio              *Portfolio
	security               *Security
	targetBuyingPower      decimal.Decimal
	minimumOrderMarginPct  decimal.Decimal
	silenceNonErrorReasons bool
}

// NewGetMaximumOrderQuantityForTargetBuyingPowerParameters builds the query.
// targetBuyingPower is a signed fraction of total portfolio value; the sign
// selects the position side. silenceNonErrorReasons skips composing
// diagnostic strings for benign outcomes on the hot path.
func NewGetMaximumOrderQuantityForTargetBuyingPowerParameters(portfolio *Portfolio, security *Security, targetBuyingPower, minimumOrderMarginPortfolioPercentage decimal.Decimal, silenceNonErrorReasons bool) GetMaximumOrderQuantityForTargetBuyingPowerParameters {
	return GetMaximumOrderQuantityForTargetBuyingPowerParameters{
		portfolio:              portfolio,
		security:               security,
		targetBuyingPower:      targetBuyingPower,
		minimumOrderMarginPct:  minimumOrderMarginPortfolioPercentage,
		silenceNonErrorReasons: silenceNonErrorReasons,
	}
}

func (p GetMaximumOrderQuantityForTargetBuyingPowerParameters) Portfolio() *Portfolio { return p.portfolio }
func (p GetMaximumOrderQuantityForTargetBuyingPowerParameters) Security() *Security   { return p.security }
func (p GetMaximumOrderQuantityForTargetBuyingPowerParameters) TargetBuyingPower() decimal.Decimal {
	return p.targetBuyingPower
}
func (p GetMaximumOrderQuantityForTargetBuyingPowerParameters) MinimumOrderMarginPortfolioPercentage() decimal.Decimal {
	return p.minimumOrderMarginPct
}
func (p GetMaximumOrderQuantityForTargetBuyingPowerParameters) SilenceNonErrorReasons() bool {
	return p.silenceNonErrorReasons
}

// GetMaximumOrderQuantityForDeltaBuyingPowerParameters asks for the largest
// order quantity achievable with an additional (signed) amount of buying
// power relative to current holdings.
type GetMaximumOrderQuantityForDeltaBuyingPowerParameters struct {
	portfolio              *Portfolio
	security               *Security
	deltaBuyingPower       decimal.Decimal
	minimumOrderMarginPct  decimal.Decimal
	silenceNonErrorReasons bool
}

// NewGetMaximumOrderQuantityForDeltaBuyingPowerParameters builds the query.
// The sign of deltaBuyingPower selects the position side the delta applies to.
func NewGetMaximumOrderQuantityForDeltaBuyingPowerParameters(portfolio *Portfolio, security *Security, deltaBuyingPower, minimumOrderMarginPortfolioPercentage decimal.Decimal, silenceNonErrorReasons bool) GetMaximumOrderQuantityForDeltaBuyingPowerParameters {
	return GetMaximumOrderQuantityForDeltaBuyingPowerParameters{
		portfolio:              portfolio,
		security:               security,
		deltaBuyingPower:       deltaBuyingPower,
		minimumOrderMarginPct:  minimumOrderMarginPortfolioPercentage,
		silenceNonErrorReasons: silenceNonErrorReasons,
	}
}

func (p GetMaximumOrderQuantityForDeltaBuyingPowerParameters) Portfolio() *Portfolio { return p.portfolio }
func (p GetMaximumOrderQuantityForDeltaBuyingPowerParameters) Security() *Security   { return p.security }
func (p GetMaximumOrderQuantityForDeltaBuyingPowerParameters) DeltaBuyingPower() decimal.Decimal {
	return p.deltaBuyingPower
}
func (p GetMaximumOrderQuantityForDeltaBuyingPowerParameters) MinimumOrderMarginPortfolioPercentage() decimal.Decimal {
	return p.minimumOrderMarginPct
}
func (p GetMaximumOrderQuantityForDeltaBuyingPowerParameters) SilenceNonErrorReasons() bool {
	return p.silenceNonErrorReasons
}
