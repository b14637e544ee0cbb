package accounting

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PositionGroupBuyingPowerModel computes margin jointly for a set of
// correlated positions (e.g. an option and its hedge). Multi-leg models live
// outside this core; the default model delegates to each security's own
// buying power model.
type PositionGroupBuyingPowerModel interface {
	// PositionGroupBuyingPower is the currency available to extend the
	// group in the given direction.
	PositionGroupBuyingPower(p *Portfolio, g *PositionGroup, direction OrderDirection) BuyingPower
	// ReservedBuyingPowerForPositionGroup is the margin currently reserved
	// to keep the group's positions open.
	ReservedBuyingPowerForPositionGroup(p *Portfolio, g *PositionGroup) decimal.Decimal
}

// PositionGroup is a set of securities whose margin is computed jointly.
// The portfolio creates a default single-security group per symbol; richer
// groupings are installed by an external position-group aggregator.
type PositionGroup struct {
	key        Symbol
	securities []*Security
	model      PositionGroupBuyingPowerModel
}

// NewPositionGroup creates a group over the given securities.
func NewPositionGroup(key Symbol, model PositionGroupBuyingPowerModel, securities ...*Security) *PositionGroup {
	return &PositionGroup{key: key, securities: securities, model: model}
}

// Key returns the group's identifier.
func (g *PositionGroup) Key() Symbol { return g.key }

// Securities returns the members of the group.
func (g *PositionGroup) Securities() []*Security { return g.securities }

// Model returns the group's buying power model.
func (g *PositionGroup) Model() PositionGroupBuyingPowerModel { return g.model }

// DefaultPositionGroupModel treats every security of the group
// independently: reserved margin is the sum of per-security maintenance
// margins, and buying power for single-security groups is answered by the
// security's own model.
type DefaultPositionGroupModel struct{}

// PositionGroupBuyingPower implements PositionGroupBuyingPowerModel.
func (DefaultPositionGroupModel) PositionGroupBuyingPower(p *Portfolio, g *PositionGroup, direction OrderDirection) BuyingPower {
	if len(g.securities) == 1 {
		s := g.securities[0]
		return s.BuyingPower().BuyingPower(NewBuyingPowerParameters(p, s, direction))
	}
	// without a joint model the group cannot free correlated margin,
	// answer the account-wide remaining margin
	return NewBuyingPower(p.MarginRemaining())
}

// ReservedBuyingPowerForPositionGroup implements PositionGroupBuyingPowerModel.
func (DefaultPositionGroupModel) ReservedBuyingPowerForPositionGroup(p *Portfolio, g *PositionGroup) decimal.Decimal {
	reserved := decimal.Zero
	for _, s := range g.securities {
		reserved = reserved.Add(s.BuyingPower().MaintenanceMargin(ForCurrentHoldings(s)).Value())
	}
	return reserved
}

// PositionGroupCollection indexes the position groups of the account.
type PositionGroupCollection struct {
	groups map[Symbol]*PositionGroup
}

// NewPositionGroupCollection creates an empty collection.
func NewPositionGroupCollection() *PositionGroupCollection {
	return &PositionGroupCollection{groups: make(map[Symbol]*PositionGroup)}
}

// GetOrCreateDefaultGroup returns the single-security group of the
// security, creating it on first use.
func (c *PositionGroupCollection) GetOrCreateDefaultGroup(s *Security) *PositionGroup {
	if g, ok := c.groups[s.Symbol()]; ok {
		return g
	}
	g := NewPositionGroup(s.Symbol(), DefaultPositionGroupModel{}, s)
	c.groups[s.Symbol()] = g
	return g
}

// Add installs a custom group, replacing any default group under the same key.
func (c *PositionGroupCollection) Add(g *PositionGroup) { c.groups[g.key] = g }

// Len returns the number of groups.
func (c *PositionGroupCollection) Len() int { return len(c.groups) }

// Groups returns the groups in key order.
func (c *PositionGroupCollection) Groups() []*PositionGroup {
	keys := make([]string, 0, len(c.groups))
	for k := range c.groups {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	out := make([]*PositionGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.groups[Symbol(k)])
	}
	return out
}
