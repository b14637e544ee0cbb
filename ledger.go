package accounting

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Portfolio is the top-level accounting aggregate. It owns the settled and
// unsettled cash books, the pending settlement queue, the margin call model
// and a lazily invalidated total-value cache, and orchestrates fills,
// dividends, splits and settlement scanning.
//
// All mutating operations are invoked sequentially by a single driving loop
// per simulation tick. The only state shared with another execution context
// in live trading is the pending settlement queue, which keeps its own
// mutex.
type Portfolio struct {
	log        *zap.SugaredLogger
	securities *SecurityRegistry
	positions  *PositionGroupCollection
	marginCall MarginCallModel

	settled          *CashBook
	unsettled        *CashBook
	baseCurrencyCash *Cash

	pendingMu sync.Mutex
	pending   []UnsettledCashAmount

	totalPortfolioValue      decimal.Decimal
	totalPortfolioValueValid bool

	setCashCalled            bool
	setAccountCurrencyCalled bool

	records []TransactionRecord
}

// PortfolioOption customizes a Portfolio at construction.
type PortfolioOption func(*Portfolio)

// WithLogger installs a structured logger; the default discards everything.
func WithLogger(log *zap.SugaredLogger) PortfolioOption {
	return func(p *Portfolio) { p.log = log }
}

// WithMarginCallModel installs the margin call model at construction; the
// default is the no-op NullMarginCallModel.
func WithMarginCallModel(m MarginCallModel) PortfolioOption {
	return func(p *Portfolio) { p.marginCall = m }
}

// NewPortfolio creates a portfolio over the given security registry (an
// empty one when nil) with the platform default of 100,000 units of the
// account currency.
func NewPortfolio(securities *SecurityRegistry, opts ...PortfolioOption) *Portfolio {
	if securities == nil {
		securities = NewSecurityRegistry()
	}
	p := &Portfolio{
		log:        zap.NewNop().Sugar(),
		securities: securities,
		positions:  NewPositionGroupCollection(),
		marginCall: NullMarginCallModel{},
		settled:    NewCashBook(),
		unsettled:  NewCashBook(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.baseCurrencyCash = p.settled.AccountCurrencyCash()
	p.baseCurrencyCash.SetAmount(decimal.NewFromInt(100000))

	// every cash mutation, settled or not, stales the valuation cache
	p.settled.OnUpdated(p.InvalidateTotalPortfolioValue)
	p.unsettled.OnUpdated(p.InvalidateTotalPortfolioValue)
	return p
}

// Securities returns the account's security registry.
func (p *Portfolio) Securities() *SecurityRegistry { return p.securities }

// Positions returns the account's position group collection.
func (p *Portfolio) Positions() *PositionGroupCollection { return p.positions }

// CashBook returns the settled cash book.
func (p *Portfolio) CashBook() *CashBook { return p.settled }

// UnsettledCashBook returns the unsettled cash book.
func (p *Portfolio) UnsettledCashBook() *CashBook { return p.unsettled }

// MarginCallModel returns the installed margin call model.
func (p *Portfolio) MarginCallModel() MarginCallModel { return p.marginCall }

// SetMarginCallModel replaces the margin call model.
func (p *Portfolio) SetMarginCallModel(m MarginCallModel) { p.marginCall = m }

// Cash is the sum of all settled currency balances in account currency.
// This is not margin available: cash-settled classes still consume margin.
func (p *Portfolio) Cash() decimal.Decimal { return p.settled.TotalValueInAccountCurrency() }

// UnsettledCash is the sum of all unsettled currency balances in account
// currency.
func (p *Portfolio) UnsettledCash() decimal.Decimal {
	return p.unsettled.TotalValueInAccountCurrency()
}

// AccountCurrency returns the account currency both books are anchored to.
func (p *Portfolio) AccountCurrency() string { return p.settled.AccountCurrency() }

// SetAccountCurrency sets the currency the account is denominated in. It is
// a one-time bootstrap operation: it must run before any security is added
// and before any cash is set, because both anchor on the prior currency.
// Re-anchoring resets both books, so starting balances are set afterwards.
// A second call with a different value is logged and ignored, tolerating
// redundant initialization from upstream configuration.
func (p *Portfolio) SetAccountCurrency(code string) error {
	code = NormalizeCurrency(code)
	if err := ValidateCurrency(code); err != nil {
		return fmt.Errorf("set account currency: %w", err)
	}

	if p.setAccountCurrencyCalled {
		if code != p.settled.AccountCurrency() {
			p.log.Infow("account currency has already been set, ignoring new value",
				"current", p.settled.AccountCurrency(), "ignored", code)
		}
		return nil
	}
	p.setAccountCurrencyCalled = true

	if code == p.settled.AccountCurrency() {
		return nil
	}
	if p.securities.Len() > 0 {
		return fmt.Errorf("cannot change account currency to %s after adding a security", code)
	}
	if p.setCashCalled {
		return fmt.Errorf("cannot change account currency to %s after setting cash", code)
	}

	p.log.Infow("setting account currency", "currency", code)
	p.unsettled.setAccountCurrency(code)
	p.settled.setAccountCurrency(code)
	p.baseCurrencyCash = p.settled.AccountCurrencyCash()
	return nil
}

// SetCash sets the account currency balance of the settled book.
func (p *Portfolio) SetCash(amount decimal.Decimal) {
	p.setCashCalled = true
	p.baseCurrencyCash.SetAmount(amount)
}

// SetCurrencyCash sets the balance and conversion rate for a specific
// currency in the settled book, creating the entry on first reference.
func (p *Portfolio) SetCurrencyCash(currency string, amount, conversionRate decimal.Decimal) {
	p.setCashCalled = true
	if cash, ok := p.settled.Get(currency); ok {
		cash.SetAmount(amount)
		cash.SetConversionRate(conversionRate)
		return
	}
	p.settled.Add(currency, amount, conversionRate)
}

// TotalPortfolioValue is the portfolio marked at current prices: settled and
// unsettled cash, plus holdings value for every security whose cash impact
// is not already in the books, plus unrealized profit for the margin-only
// classes (futures, CFDs) that never post cash on trade.
//
// The value is recomputed only when a mutation has invalidated the cache,
// O(number of securities), and served from the cache otherwise.
func (p *Portfolio) TotalPortfolioValue() decimal.Decimal {
	if !p.totalPortfolioValueValid {
		holdingsValue := decimal.Zero
		marginOnlyProfit := decimal.Zero
		for _, s := range p.securities.All() {
			h := s.Holdings()
			if !h.Invested() {
				continue
			}
			switch {
			case s.Type().isCashSettled():
				// already accounted by the cash books
			case s.Type().isMarginOnly():
				marginOnlyProfit = marginOnlyProfit.Add(h.UnrealizedProfit())
			default:
				holdingsValue = holdingsValue.Add(h.HoldingsValue())
			}
		}
		p.totalPortfolioValue = p.settled.TotalValueInAccountCurrency().
			Add(p.unsettled.TotalValueInAccountCurrency()).
			Add(holdingsValue).
			Add(marginOnlyProfit)
		p.totalPortfolioValueValid = true
	}
	return p.totalPortfolioValue
}

// InvalidateTotalPortfolioValue flags the cached total as stale so the next
// read recomputes it.
func (p *Portfolio) InvalidateTotalPortfolioValue() { p.totalPortfolioValueValid = false }

// Invested reports whether any security holds a position.
func (p *Portfolio) Invested() bool {
	for _, s := range p.securities.All() {
		if s.Holdings().Invested() {
			return true
		}
	}
	return false
}

// TotalHoldingsValue sums the absolute marked value of every position.
func (p *Portfolio) TotalHoldingsValue() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.securities.All() {
		total = total.Add(s.Holdings().AbsoluteHoldingsValue())
	}
	return total
}

// TotalAbsoluteHoldingsCost sums the absolute cost of every position.
func (p *Portfolio) TotalAbsoluteHoldingsCost() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.securities.All() {
		total = total.Add(s.Holdings().AbsoluteHoldingsCost())
	}
	return total
}

// TotalUnrealizedProfit sums the unrealized profit of every position.
func (p *Portfolio) TotalUnrealizedProfit() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.securities.All() {
		total = total.Add(s.Holdings().UnrealizedProfit())
	}
	return total
}

// TotalMarginUsed is the margin reserved across all position groups, in
// account currency.
func (p *Portfolio) TotalMarginUsed() decimal.Decimal {
	total := decimal.Zero
	for _, g := range p.positions.Groups() {
		total = total.Add(g.Model().ReservedBuyingPowerForPositionGroup(p, g))
	}
	return total
}

// MarginRemaining is the margin still available on the account: total value
// minus unsettled cash minus margin used.
func (p *Portfolio) MarginRemaining() decimal.Decimal {
	return p.TotalPortfolioValue().Sub(p.UnsettledCash()).Sub(p.TotalMarginUsed())
}

// GetMarginRemaining answers the margin available for trading one symbol in
// one direction. The portfolio resolves the security's default position
// group and delegates the arithmetic to the group's buying power model,
// returning its answer unmodified.
func (p *Portfolio) GetMarginRemaining(symbol Symbol, direction OrderDirection) (BuyingPower, error) {
	s, ok := p.securities.Get(symbol)
	if !ok {
		return ZeroBuyingPower, fmt.Errorf("margin remaining: unknown security %s", symbol)
	}
	g := p.positions.GetOrCreateDefaultGroup(s)
	return g.Model().PositionGroupBuyingPower(p, g, direction), nil
}

// ProcessFill routes a fill to the security's fill-application strategy and
// invalidates the valuation cache. It is the single seam between trade
// execution and ledger state; callers must invoke it exactly once per fill,
// in fill-timestamp order.
func (p *Portfolio) ProcessFill(fill Fill) error {
	s, ok := p.securities.Get(fill.Symbol)
	if !ok {
		return fmt.Errorf("process fill: unknown security %s", fill.Symbol)
	}
	applier := s.Fills()
	if applier == nil {
		return fmt.Errorf("process fill: security %s has no fill applier installed", fill.Symbol)
	}
	err := applier.ApplyFill(p, s, fill)
	p.InvalidateTotalPortfolioValue()
	if err != nil {
		return fmt.Errorf("process fill %s: %w", fill.Symbol, err)
	}
	return nil
}

// ApplyDividend credits a dividend to the account currency cash. Live runs
// skip it: the brokerage cash feed is authoritative there. In simulation it
// applies only under normalization modes with unadjusted dividends (raw and
// split-adjusted); adjusted feeds already fold the distribution into prices.
//
// The credit always targets account-currency cash, even when the holding
// trades in another currency. This is a known simplification kept from the
// original behavior.
func (p *Portfolio) ApplyDividend(dividend Dividend, live bool, mode DataNormalizationMode) error {
	if live {
		return nil
	}
	s, ok := p.securities.Get(dividend.Symbol)
	if !ok {
		return fmt.Errorf("apply dividend: unknown security %s", dividend.Symbol)
	}
	if mode == Raw || mode == SplitAdjusted {
		// longs collect, shorts pay
		total := s.Holdings().Quantity().Mul(dividend.Distribution)
		p.baseCurrencyCash.AddAmount(total)
	}
	return nil
}

// ApplySplit rescales an equity position for a split and monetizes the
// fractional remainder into account-currency cash. Only equities split, and
// only live or under raw normalization (adjusted feeds rescale prices
// instead). The remainder is valued at the split's static reference price
// times the factor rather than the latest tick, trading a small valuation
// error for independence from most-recent market data.
func (p *Portfolio) ApplySplit(split Split, live bool, mode DataNormalizationMode) error {
	s, ok := p.securities.Get(split.Symbol)
	if !ok {
		return fmt.Errorf("apply split: unknown security %s", split.Symbol)
	}
	if s.Type() != Equity {
		return nil
	}
	if !live && mode != Raw {
		return nil
	}

	h := s.Holdings()
	quantity := h.Quantity().Div(split.SplitFactor)
	avgPrice := h.AveragePrice().Mul(split.SplitFactor)

	wholeQuantity := quantity.Truncate(0)
	leftOver := quantity.Sub(wholeQuantity)

	h.SetHoldings(avgPrice, wholeQuantity)
	p.baseCurrencyCash.AddAmount(leftOver.Mul(split.ReferencePrice).Mul(split.SplitFactor))

	p.InvalidateTotalPortfolioValue()
	return nil
}

// AddUnsettledCashAmount queues a sale proceed waiting for settlement. In
// live trading the settlement model may call this from a different execution
// context than the scan that drains the queue.
func (p *Portfolio) AddUnsettledCashAmount(item UnsettledCashAmount) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	p.pending = append(p.pending, item)
}

// UnsettledCashAmounts returns a snapshot of the pending settlement queue.
func (p *Portfolio) UnsettledCashAmounts() []UnsettledCashAmount {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	out := make([]UnsettledCashAmount, len(p.pending))
	copy(out, p.pending)
	return out
}

// ScanForCashSettlement settles every pending amount whose settlement
// instant has passed: the entry is removed, the unsettled book debited and
// the settled book credited by the identical amount. Each entry is judged by
// its own instant, not by queue order. Settlement is exactly-once; a rerun
// after an item has settled is a no-op.
func (p *Portfolio) ScanForCashSettlement(nowUTC time.Time) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()

	remaining := p.pending[:0]
	for _, item := range p.pending {
		if nowUTC.Before(item.SettlementTimeUTC) {
			remaining = append(remaining, item)
			continue
		}
		p.log.Debugw("settling cash",
			"currency", item.Currency, "amount", item.Amount, "due", item.SettlementTimeUTC)
		p.unsettled.Ensure(item.Currency).AddAmount(item.Amount.Neg())
		p.settled.Ensure(item.Currency).AddAmount(item.Amount)
	}
	p.pending = remaining
}

// AddTransactionRecord keeps a closed trade's time and realized profit/loss
// for the statistics layer.
func (p *Portfolio) AddTransactionRecord(t time.Time, profitLoss decimal.Decimal) {
	p.records = append(p.records, TransactionRecord{Time: t, ProfitLoss: profitLoss})
}

// TransactionRecords returns a snapshot of the recorded transactions.
func (p *Portfolio) TransactionRecords() []TransactionRecord {
	out := make([]TransactionRecord, len(p.records))
	copy(out, p.records)
	return out
}

// LogMarginInformation logs the account-wide margin state, and the margin
// state of the order's security when an order is given.
func (p *Portfolio) LogMarginInformation(order *Order) {
	p.log.Infow("total margin information",
		"totalMarginUsed", p.TotalMarginUsed().StringFixed(2),
		"marginRemaining", p.MarginRemaining().StringFixed(2))

	if order == nil {
		return
	}
	s, ok := p.securities.Get(order.Symbol)
	if !ok {
		return
	}
	direction := Buy
	if order.Quantity.IsNegative() {
		direction = Sell
	}
	g := p.positions.GetOrCreateDefaultGroup(s)
	p.log.Infow("order request margin information",
		"symbol", order.Symbol,
		"marginUsed", g.Model().ReservedBuyingPowerForPositionGroup(p, g).StringFixed(2),
		"marginRemaining", g.Model().PositionGroupBuyingPower(p, g, direction).Value().StringFixed(2))
}
