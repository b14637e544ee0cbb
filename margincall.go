package accounting

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MarginCallModel detects maintenance margin breaches and produces the
// liquidating orders needed to bring the account back within requirements.
type MarginCallModel interface {
	// MarginCallOrders returns the orders required to cure a breach (empty
	// when the account is within requirements) and whether the account is
	// close enough to a breach that a warning should be issued.
	MarginCallOrders() (orders []Order, issueMarginCallWarning bool)
	// ExecuteMarginCall submits the orders and returns only the tickets
	// actually accepted downstream. Partial execution is expected, not a
	// failure of the call.
	ExecuteMarginCall(orders []Order) []*OrderTicket
}

// NullMarginCallModel never detects a breach and never executes anything.
// It is the explicit default for portfolios whose risk handling lives
// elsewhere, and keeps tests isolated from margin call behavior.
type NullMarginCallModel struct{}

// MarginCallOrders implements MarginCallModel.
func (NullMarginCallModel) MarginCallOrders() ([]Order, bool) { return nil, false }

// ExecuteMarginCall implements MarginCallModel.
func (NullMarginCallModel) ExecuteMarginCall([]Order) []*OrderTicket { return nil }

// DefaultMarginCallModel liquidates positions when the margin used exceeds
// the total portfolio value, and warns when the remaining margin falls under
// the warning threshold fraction of portfolio value.
type DefaultMarginCallModel struct {
	portfolio *Portfolio
	processor OrderProcessor
	log       *zap.SugaredLogger

	// warningThreshold is the fraction of portfolio value under which a
	// margin call warning is issued. Default 5%.
	warningThreshold decimal.Decimal
}

// NewDefaultMarginCallModel creates the model. The processor is the external
// order management entry point margin call orders are submitted to.
func NewDefaultMarginCallModel(portfolio *Portfolio, processor OrderProcessor, log *zap.SugaredLogger) *DefaultMarginCallModel {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DefaultMarginCallModel{
		portfolio:        portfolio,
		processor:        processor,
		log:              log,
		warningThreshold: decimal.New(5, -2),
	}
}

// MarginCallOrders implements MarginCallModel.
func (m *DefaultMarginCallModel) MarginCallOrders() ([]Order, bool) {
	totalMarginUsed := m.portfolio.TotalMarginUsed()
	if totalMarginUsed.IsZero() {
		return nil, false
	}

	portfolioValue := m.portfolio.TotalPortfolioValue()
	marginRemaining := m.portfolio.MarginRemaining()

	issueWarning := marginRemaining.LessThanOrEqual(portfolioValue.Mul(m.warningThreshold))

	if totalMarginUsed.LessThanOrEqual(portfolioValue) {
		return nil, issueWarning
	}

	// generate one liquidation order per invested security, each curing its
	// share of the excess
	excess := totalMarginUsed.Sub(portfolioValue)
	var orders []Order
	for _, s := range m.portfolio.Securities().All() {
		if !s.Holdings().Invested() {
			continue
		}
		allocation := s.BuyingPower().MaintenanceMargin(ForCurrentHoldings(s)).Value()
		if allocation.IsZero() {
			continue
		}
		share := excess.Mul(allocation.Div(totalMarginUsed))
		if order, ok := m.generateMarginCallOrder(s, share); ok {
			orders = append(orders, order)
		}
	}
	return orders, issueWarning
}

// generateMarginCallOrder builds the order liquidating just enough of the
// security's position to free the given amount of margin.
func (m *DefaultMarginCallModel) generateMarginCallOrder(s *Security, marginToFree decimal.Decimal) (Order, bool) {
	h := s.Holdings()
	perUnit := s.BuyingPower().MaintenanceMargin(ForQuantityAtCurrentPrice(s, decimal.NewFromInt(1))).Value()
	if perUnit.IsZero() {
		return Order{}, false
	}

	quantity := marginToFree.Div(perUnit).Ceil()
	if quantity.GreaterThan(h.Quantity().Abs()) {
		quantity = h.Quantity().Abs()
	}
	if quantity.IsZero() {
		return Order{}, false
	}
	if !h.IsShort() {
		// liquidating a long position sells
		quantity = quantity.Neg()
	}
	return NewOrder(s.Symbol(), quantity, "margin call"), true
}

// ExecuteMarginCall implements MarginCallModel. Orders closing the biggest
// unrealized losses are submitted first.
func (m *DefaultMarginCallModel) ExecuteMarginCall(orders []Order) []*OrderTicket {
	if m.processor == nil || len(orders) == 0 {
		return nil
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return m.unrealizedProfit(orders[i]).LessThan(m.unrealizedProfit(orders[j]))
	})

	var accepted []*OrderTicket
	for _, order := range orders {
		ticket, err := m.processor.Submit(order)
		if err != nil {
			m.log.Warnw("margin call order rejected", "order", order.ID, "symbol", order.Symbol, "err", err)
			continue
		}
		if ticket != nil && ticket.Status != OrderRejected {
			accepted = append(accepted, ticket)
		}
	}
	return accepted
}

func (m *DefaultMarginCallModel) unrealizedProfit(order Order) decimal.Decimal {
	s, ok := m.portfolio.Securities().Get(order.Symbol)
	if !ok {
		return decimal.Zero
	}
	return s.Holdings().UnrealizedProfit()
}

var (
	_ MarginCallModel = NullMarginCallModel{}
	_ MarginCallModel = (*DefaultMarginCallModel)(nil)
)
