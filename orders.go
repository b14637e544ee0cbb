package accounting

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// OrderDirection is the trading direction of an order or margin query.
type OrderDirection int

const (
	Buy OrderDirection = iota
	Sell
	Hold
)

func (d OrderDirection) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// DataNormalizationMode describes how the price feed adjusts historical data
// for corporate actions. Dividends and splits only credit cash under the
// modes that represent unadjusted prices.
type DataNormalizationMode int

const (
	// Adjusted prices already fold dividends and splits in.
	Adjusted DataNormalizationMode = iota
	// Raw prices carry no adjustment at all.
	Raw
	// SplitAdjusted prices fold splits in but not dividends.
	SplitAdjusted
	// TotalReturn prices fold dividends into the price series.
	TotalReturn
)

// Fill is the event emitted by the (external) execution simulator when an
// order trades. Quantity is signed: positive buys, negative sells.
type Fill struct {
	Symbol   Symbol
	TimeUTC  time.Time
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Direction derives the trade direction from the signed quantity.
func (f Fill) Direction() OrderDirection {
	switch {
	case f.Quantity.IsPositive():
		return Buy
	case f.Quantity.IsNegative():
		return Sell
	default:
		return Hold
	}
}

// Dividend is a per-share cash distribution event.
type Dividend struct {
	Symbol       Symbol
	Distribution decimal.Decimal
}

// Split is a stock split event. SplitFactor follows the divisor convention:
// quantity is divided by the factor and average price multiplied by it.
// ReferencePrice is the pre-split price captured when the event was built,
// used to monetize fractional shares without re-reading the feed.
type Split struct {
	Symbol         Symbol
	SplitFactor    decimal.Decimal
	ReferencePrice decimal.Decimal
}

// OrderStatus is the lifecycle state reported back by the order processor.
type OrderStatus int

const (
	OrderSubmitted OrderStatus = iota
	OrderAccepted
	OrderRejected
)

// Order is the minimal order shape this core emits (margin call
// liquidations). Full order semantics belong to the external order
// management system.
type Order struct {
	ID       string
	Symbol   Symbol
	Quantity decimal.Decimal
	Tag      string
}

// OrderTicket is the processor's handle on a submitted order.
type OrderTicket struct {
	OrderID string
	Status  OrderStatus
}

// OrderProcessor submits orders to the external order management system.
// Submission may be refused; a nil ticket with an error is a rejection, not
// a failure of the caller.
type OrderProcessor interface {
	Submit(o Order) (*OrderTicket, error)
}

var (
	idMu   sync.Mutex
	idMono io.Reader
)

func init() {
	// Seed a PRNG from crypto/rand and keep ULIDs monotonic within the same
	// millisecond, so order ids stay lexicographically increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	idMono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// newOrderID returns a time-sortable ULID string.
func newOrderID() string {
	idMu.Lock()
	defer idMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), idMono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// NewOrder creates an order with a fresh ULID id.
func NewOrder(symbol Symbol, quantity decimal.Decimal, tag string) Order {
	return Order{ID: newOrderID(), Symbol: symbol, Quantity: quantity, Tag: tag}
}

// TransactionRecord keeps the time and realized profit/loss of a closed
// trade for the statistics layer.
type TransactionRecord struct {
	Time       time.Time
	ProfitLoss decimal.Decimal
}
