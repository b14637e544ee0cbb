package accounting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Symbol is the unique identifier of a tradeable asset in the registry.
// Symbols are case-normalized on creation.
type Symbol string

// NewSymbol normalizes a raw ticker into a Symbol.
func NewSymbol(ticker string) Symbol { return Symbol(strings.ToUpper(strings.TrimSpace(ticker))) }

// String implements the fmt.Stringer interface.
func (s Symbol) String() string { return string(s) }

// SecurityType partitions securities by how their trades impact the account:
// cash-settled classes (Forex, Crypto) post directly to the cash books,
// margin-only classes (Future, Cfd) never post cash on trade, and everything
// else contributes its holdings value to the portfolio valuation.
type SecurityType int

const (
	Equity SecurityType = iota
	Option
	Forex
	Future
	Cfd
	Crypto
	FutureOption
	Index
)

func (t SecurityType) String() string {
	switch t {
	case Equity:
		return "equity"
	case Option:
		return "option"
	case Forex:
		return "forex"
	case Future:
		return "future"
	case Cfd:
		return "cfd"
	case Crypto:
		return "crypto"
	case FutureOption:
		return "futureoption"
	case Index:
		return "index"
	default:
		return "unknown"
	}
}

// isCashSettled reports whether trading this class moves the cash books
// directly, making its holdings value redundant in the portfolio total.
func (t SecurityType) isCashSettled() bool { return t == Forex || t == Crypto }

// isMarginOnly reports whether this class never posts cash on trade, so only
// its unrealized profit belongs in the portfolio total.
func (t SecurityType) isMarginOnly() bool { return t == Future || t == Cfd }

// FillApplier is the per-security fill-application strategy: it turns an
// executed fill into cash and position mutations on the portfolio. Concrete
// strategies (equity cash fills, future margin fills, ...) live outside this
// core; they typically post cash through the security's settlement model.
type FillApplier interface {
	ApplyFill(p *Portfolio, s *Security, fill Fill) error
}

// Security represent a tradeable asset: its identity, its venue context
// (calendar and time zone), its last market price, its holdings, and the
// strategies installed for settlement, fills and margin.
type Security struct {
	symbol        Symbol
	secType       SecurityType
	quoteCurrency string

	calendar MarketCalendar
	location *time.Location

	price    decimal.Decimal
	holdings *Holding

	settlement  SettlementModel
	fills       FillApplier
	buyingPower BuyingPowerModel
	underlying  *Security
}

// NewSecurity creates a security with the platform defaults: weekday market
// calendar, UTC venue clock, immediate settlement and the margin-based
// buying power model. Strategies are swapped at configuration time through
// the setters.
func NewSecurity(symbol Symbol, t SecurityType, quoteCurrency string) *Security {
	s := &Security{
		symbol:        symbol,
		secType:       t,
		quoteCurrency: NormalizeCurrency(quoteCurrency),
		calendar:      WeekdayCalendar{},
		location:      time.UTC,
		settlement:    ImmediateSettlementModel{},
		buyingPower:   NewMarginBuyingPowerModel(),
	}
	s.holdings = newHolding(s)
	return s
}

// Symbol returns the security's identifier.
func (s *Security) Symbol() Symbol { return s.symbol }

// Type returns the security's asset class.
func (s *Security) Type() SecurityType { return s.secType }

// QuoteCurrency returns the currency the security trades in.
func (s *Security) QuoteCurrency() string { return s.quoteCurrency }

// Price returns the last known market price.
func (s *Security) Price() decimal.Decimal { return s.price }

// SetMarketPrice records the last traded price of the security.
func (s *Security) SetMarketPrice(price decimal.Decimal) { s.price = price }

// Holdings returns the security's holdings ledger entry.
func (s *Security) Holdings() *Holding { return s.holdings }

// Calendar returns the venue calendar used for settlement day counting.
func (s *Security) Calendar() MarketCalendar { return s.calendar }

// SetCalendar installs the venue calendar.
func (s *Security) SetCalendar(c MarketCalendar) { s.calendar = c }

// Location returns the venue time zone.
func (s *Security) Location() *time.Location { return s.location }

// SetLocation installs the venue time zone.
func (s *Security) SetLocation(loc *time.Location) { s.location = loc }

// Settlement returns the installed settlement model.
func (s *Security) Settlement() SettlementModel { return s.settlement }

// SetSettlementModel installs the settlement model.
func (s *Security) SetSettlementModel(m SettlementModel) { s.settlement = m }

// Fills returns the installed fill-application strategy, nil if none.
func (s *Security) Fills() FillApplier { return s.fills }

// SetFillApplier installs the fill-application strategy.
func (s *Security) SetFillApplier(f FillApplier) { s.fills = f }

// BuyingPower returns the installed buying power model.
func (s *Security) BuyingPower() BuyingPowerModel { return s.buyingPower }

// SetBuyingPowerModel installs the buying power model.
func (s *Security) SetBuyingPowerModel(m BuyingPowerModel) { s.buyingPower = m }

// Underlying returns the underlying security for derivatives, nil otherwise.
func (s *Security) Underlying() *Security { return s.underlying }

// SetUnderlying links a derivative to its underlying security.
func (s *Security) SetUnderlying(u *Security) { s.underlying = u }

// IsDerivative reports whether the security has an underlying.
func (s *Security) IsDerivative() bool { return s.underlying != nil }

// SecurityRegistry indexes the securities of the account by symbol. It is
// populated during bootstrap, before any cash is set.
type SecurityRegistry struct {
	securities map[Symbol]*Security
}

// NewSecurityRegistry creates an empty registry.
func NewSecurityRegistry() *SecurityRegistry {
	return &SecurityRegistry{securities: make(map[Symbol]*Security)}
}

// Add registers a security. Registering the same symbol twice is a
// configuration error.
func (r *SecurityRegistry) Add(s *Security) error {
	if _, ok := r.securities[s.symbol]; ok {
		return fmt.Errorf("security %s already registered", s.symbol)
	}
	r.securities[s.symbol] = s
	return nil
}

// Get returns the security registered under symbol.
func (r *SecurityRegistry) Get(symbol Symbol) (*Security, bool) {
	s, ok := r.securities[symbol]
	return s, ok
}

// Len returns the number of registered securities.
func (r *SecurityRegistry) Len() int { return len(r.securities) }

// All iterates the registered securities in symbol order.
func (r *SecurityRegistry) All() []*Security {
	symbols := make([]string, 0, len(r.securities))
	for sym := range r.securities {
		symbols = append(symbols, string(sym))
	}
	sort.Strings(symbols)
	out := make([]*Security, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, r.securities[Symbol(sym)])
	}
	return out
}
