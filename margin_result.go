package accounting

import "github.com/shopspring/decimal"

// GetMaximumOrderQuantityResult is the answer to a maximum order quantity
// query. A zero quantity is not an error by itself: benign constraints (a
// minimum order size, an already-reached target) also produce zero. The
// explicit error flag plus a human-readable reason separate the two, and the
// benign case can skip composing the reason string when the caller opts in
// via SilenceNonErrorReasons.
type GetMaximumOrderQuantityResult struct {
	quantity decimal.Decimal
	reason   string
	isError  bool
}

// NewGetMaximumOrderQuantityResult builds a result; an empty reason means a
// non-error outcome.
func NewGetMaximumOrderQuantityResult(quantity decimal.Decimal, reason string) GetMaximumOrderQuantityResult {
	return GetMaximumOrderQuantityResult{quantity: quantity, reason: reason, isError: reason != ""}
}

// NewGetMaximumOrderQuantityResultNonError builds a result that carries a
// reason for diagnostics but explicitly marks the outcome as benign.
func NewGetMaximumOrderQuantityResultNonError(quantity decimal.Decimal, reason string) GetMaximumOrderQuantityResult {
	return GetMaximumOrderQuantityResult{quantity: quantity, reason: reason, isError: false}
}

func (r GetMaximumOrderQuantityResult) Quantity() decimal.Decimal { return r.quantity }
func (r GetMaximumOrderQuantityResult) Reason() string            { return r.reason }
func (r GetMaximumOrderQuantityResult) IsError() bool             { return r.isError }

// HasSufficientBuyingPowerForOrderResult is the answer to a buying power
// sufficiency check. Insufficiency is an expected business outcome, not an
// error: callers branch on IsSufficient.
type HasSufficientBuyingPowerForOrderResult struct {
	isSufficient bool
	reason       string
}

// NewHasSufficientBuyingPowerForOrderResult builds a result.
func NewHasSufficientBuyingPowerForOrderResult(isSufficient bool, reason string) HasSufficientBuyingPowerForOrderResult {
	return HasSufficientBuyingPowerForOrderResult{isSufficient: isSufficient, reason: reason}
}

func (r HasSufficientBuyingPowerForOrderResult) IsSufficient() bool { return r.isSufficient }
func (r HasSufficientBuyingPowerForOrderResult) Reason() string     { return r.reason }
