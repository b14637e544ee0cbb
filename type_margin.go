package accounting

import "github.com/shopspring/decimal"

// The margin subsystem answers queries with typed decimal wrappers rather
// than bare decimals, so call sites cannot confuse an initial margin with a
// buying power figure. Each wrapper converts losslessly to and from the raw
// decimal and carries a canonical zero.

// InitialMargin is the margin required to open a position.
type InitialMargin struct{ value decimal.Decimal }

// ZeroInitialMargin is the canonical zero initial margin.
var ZeroInitialMargin = InitialMargin{}

// NewInitialMargin wraps a raw decimal amount.
func NewInitialMargin(value decimal.Decimal) InitialMargin { return InitialMargin{value: value} }

func (m InitialMargin) Value() decimal.Decimal { return m.value }
func (m InitialMargin) IsZero() bool           { return m.value.IsZero() }
func (m InitialMargin) Neg() InitialMargin     { return InitialMargin{value: m.value.Neg()} }
func (m InitialMargin) Abs() InitialMargin     { return InitialMargin{value: m.value.Abs()} }
func (m InitialMargin) String() string         { return m.value.String() }

// MaintenanceMargin is the margin required to keep a position open.
type MaintenanceMargin struct{ value decimal.Decimal }

// ZeroMaintenanceMargin is the canonical zero maintenance margin.
var ZeroMaintenanceMargin = MaintenanceMargin{}

// NewMaintenanceMargin wraps a raw decimal amount.
func NewMaintenanceMargin(value decimal.Decimal) MaintenanceMargin {
	return MaintenanceMargin{value: value}
}

func (m MaintenanceMargin) Value() decimal.Decimal { return m.value }
func (m MaintenanceMargin) IsZero() bool           { return m.value.IsZero() }
func (m MaintenanceMargin) Neg() MaintenanceMargin { return MaintenanceMargin{value: m.value.Neg()} }
func (m MaintenanceMargin) Abs() MaintenanceMargin { return MaintenanceMargin{value: m.value.Abs()} }
func (m MaintenanceMargin) String() string         { return m.value.String() }

// BuyingPower is the currency available to open new positions.
type BuyingPower struct{ value decimal.Decimal }

// ZeroBuyingPower is the canonical zero buying power.
var ZeroBuyingPower = BuyingPower{}

// NewBuyingPower wraps a raw decimal amount.
func NewBuyingPower(value decimal.Decimal) BuyingPower { return BuyingPower{value: value} }

func (b BuyingPower) Value() decimal.Decimal { return b.value }
func (b BuyingPower) IsZero() bool           { return b.value.IsZero() }
func (b BuyingPower) Neg() BuyingPower       { return BuyingPower{value: b.value.Neg()} }
func (b BuyingPower) Abs() BuyingPower       { return BuyingPower{value: b.value.Abs()} }
func (b BuyingPower) String() string         { return b.value.String() }
