package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BuyingPowerModel is the pluggable per-asset-class strategy answering
// margin queries. Every query is an immutable parameter object and every
// answer an immutable result, so models stay stateless and the simulation
// loop never allocates exceptions for routine risk outcomes.
type BuyingPowerModel interface {
	InitialMargin(p InitialMarginParameters) InitialMargin
	MaintenanceMargin(p MaintenanceMarginParameters) MaintenanceMargin
	BuyingPower(p BuyingPowerParameters) BuyingPower
	HasSufficientBuyingPowerForOrder(p HasSufficientBuyingPowerForOrderParameters) HasSufficientBuyingPowerForOrderResult
	MaximumOrderQuantityForTargetBuyingPower(p GetMaximumOrderQuantityForTargetBuyingPowerParameters) GetMaximumOrderQuantityResult
	MaximumOrderQuantityForDeltaBuyingPower(p GetMaximumOrderQuantityForDeltaBuyingPowerParameters) GetMaximumOrderQuantityResult
}

// MarginBuyingPowerModel is the default margin model: initial and
// maintenance requirements are flat fractions of the position's market
// value. Asset classes with richer margin schedules install their own model.
type MarginBuyingPowerModel struct {
	initialMarginRequirement     decimal.Decimal
	maintenanceMarginRequirement decimal.Decimal
}

// NewMarginBuyingPowerModel returns the model at the platform default of 2x
// leverage: a flat 50% requirement both to open and to keep a position.
func NewMarginBuyingPowerModel() *MarginBuyingPowerModel {
	half := decimal.New(5, -1)
	return &MarginBuyingPowerModel{initialMarginRequirement: half, maintenanceMarginRequirement: half}
}

// NewMarginBuyingPowerModelWithRequirements returns a model with explicit
// initial and maintenance requirement fractions.
func NewMarginBuyingPowerModelWithRequirements(initial, maintenance decimal.Decimal) *MarginBuyingPowerModel {
	return &MarginBuyingPowerModel{initialMarginRequirement: initial, maintenanceMarginRequirement: maintenance}
}

// InitialMargin implements BuyingPowerModel: |quantity| × price × initial
// requirement.
func (m *MarginBuyingPowerModel) InitialMargin(p InitialMarginParameters) InitialMargin {
	value := p.Security().Price().Mul(p.Quantity().Abs()).Mul(m.initialMarginRequirement)
	return NewInitialMargin(value)
}

// MaintenanceMargin implements BuyingPowerModel: |holdings value| ×
// maintenance requirement.
func (m *MarginBuyingPowerModel) MaintenanceMargin(p MaintenanceMarginParameters) MaintenanceMargin {
	return NewMaintenanceMargin(p.AbsoluteHoldingsValue().Mul(m.maintenanceMarginRequirement))
}

// BuyingPower implements BuyingPowerModel. The answer is the account's
// remaining margin; when the direction closes the existing position, the
// margin reserved for it is freed and counted back in.
func (m *MarginBuyingPowerModel) BuyingPower(p BuyingPowerParameters) BuyingPower {
	remaining := p.Portfolio().MarginRemaining()

	h := p.Security().Holdings()
	if h.Invested() {
		closing := (p.Direction() == Buy && h.IsShort()) || (p.Direction() == Sell && !h.IsShort())
		if closing {
			reserved := m.MaintenanceMargin(ForCurrentHoldings(p.Security())).Value()
			remaining = remaining.Add(reserved)
		}
	}
	return NewBuyingPower(remaining)
}

// HasSufficientBuyingPowerForOrder implements BuyingPowerModel.
func (m *MarginBuyingPowerModel) HasSufficientBuyingPowerForOrder(p HasSufficientBuyingPowerForOrderParameters) HasSufficientBuyingPowerForOrderResult {
	direction := Buy
	if p.Order().Quantity.IsNegative() {
		direction = Sell
	}
	free := m.BuyingPower(NewBuyingPowerParameters(p.Portfolio(), p.Security(), direction)).Value()
	required := m.InitialMargin(NewInitialMarginParameters(p.Security(), p.Order().Quantity)).Value()

	if required.GreaterThan(free) {
		return p.Insufficient(fmt.Sprintf(
			"order %s requires %s initial margin but only %s is free",
			p.Order().ID, required.StringFixed(2), free.StringFixed(2)))
	}
	return p.Sufficient()
}

// MaximumOrderQuantityForTargetBuyingPower implements BuyingPowerModel. The
// target is a signed fraction of total portfolio value to be used as margin
// by the final position.
func (m *MarginBuyingPowerModel) MaximumOrderQuantityForTargetBuyingPower(p GetMaximumOrderQuantityForTargetBuyingPowerParameters) GetMaximumOrderQuantityResult {
	security := p.Security()
	price := security.Price()
	if price.IsZero() {
		return NewGetMaximumOrderQuantityResult(decimal.Zero, fmt.Sprintf(
			"the price of the %s security is zero because it does not have any market data yet", security.Symbol()))
	}

	portfolioValue := p.Portfolio().TotalPortfolioValue()
	targetMargin := portfolioValue.Mul(p.TargetBuyingPower())

	// signed margin currently consumed by the position
	h := security.Holdings()
	currentMargin := m.MaintenanceMargin(ForCurrentHoldings(security)).Value()
	if h.IsShort() {
		currentMargin = currentMargin.Neg()
	}

	deltaMargin := targetMargin.Sub(currentMargin)

	minimum := portfolioValue.Mul(p.MinimumOrderMarginPortfolioPercentage())
	if minimum.IsPositive() && deltaMargin.Abs().LessThan(minimum) {
		if p.SilenceNonErrorReasons() {
			return NewGetMaximumOrderQuantityResultNonError(decimal.Zero, "")
		}
		return NewGetMaximumOrderQuantityResultNonError(decimal.Zero, fmt.Sprintf(
			"the target order margin %s is below the minimum %s of the portfolio value",
			deltaMargin.Abs().StringFixed(2), minimum.StringFixed(2)))
	}

	marginPerUnit := price.Mul(m.initialMarginRequirement)
	quantity := deltaMargin.Div(marginPerUnit).Truncate(0)
	if quantity.IsZero() && !p.SilenceNonErrorReasons() {
		return NewGetMaximumOrderQuantityResultNonError(decimal.Zero, fmt.Sprintf(
			"the delta margin %s is not enough for a single unit at %s per unit",
			deltaMargin.StringFixed(2), marginPerUnit.StringFixed(2)))
	}
	return NewGetMaximumOrderQuantityResult(quantity, "")
}

// MaximumOrderQuantityForDeltaBuyingPower implements BuyingPowerModel by
// translating the delta into the equivalent final target and reusing the
// target path.
func (m *MarginBuyingPowerModel) MaximumOrderQuantityForDeltaBuyingPower(p GetMaximumOrderQuantityForDeltaBuyingPowerParameters) GetMaximumOrderQuantityResult {
	portfolioValue := p.Portfolio().TotalPortfolioValue()
	if portfolioValue.IsZero() {
		return NewGetMaximumOrderQuantityResult(decimal.Zero, "the total portfolio value is zero, cannot translate a delta buying power into a target")
	}

	security := p.Security()
	h := security.Holdings()
	currentMargin := m.MaintenanceMargin(ForCurrentHoldings(security)).Value()
	if h.IsShort() {
		currentMargin = currentMargin.Neg()
	}

	target := currentMargin.Add(p.DeltaBuyingPower()).Div(portfolioValue)
	return m.MaximumOrderQuantityForTargetBuyingPower(NewGetMaximumOrderQuantityForTargetBuyingPowerParameters(
		p.Portfolio(), security, target, p.MinimumOrderMarginPortfolioPercentage(), p.SilenceNonErrorReasons()))
}

var _ BuyingPowerModel = (*MarginBuyingPowerModel)(nil)
