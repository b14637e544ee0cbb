package accounting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPortfolioDefaults(t *testing.T) {
	p := NewPortfolio(nil)
	assert.Equal(t, "USD", p.AccountCurrency())
	equalDec(t, "100000", p.Cash())
	equalDec(t, "0", p.UnsettledCash())
	equalDec(t, "100000", p.TotalPortfolioValue())
	assert.False(t, p.Invested())
}

func TestSetAccountCurrency(t *testing.T) {
	t.Run("re-anchors both books before bootstrap", func(t *testing.T) {
		p := NewPortfolio(nil)
		require.NoError(t, p.SetAccountCurrency("eur"))
		assert.Equal(t, "EUR", p.AccountCurrency())
		assert.Equal(t, "EUR", p.UnsettledCashBook().AccountCurrency())
		// re-anchoring resets the default balance, starting cash comes next
		equalDec(t, "0", p.Cash())

		p.SetCash(D(250000))
		equalDec(t, "250000", p.Cash())
	})

	t.Run("second differing call keeps the first", func(t *testing.T) {
		p := NewPortfolio(nil)
		require.NoError(t, p.SetAccountCurrency("EUR"))
		require.NoError(t, p.SetAccountCurrency("JPY"))
		assert.Equal(t, "EUR", p.AccountCurrency())
	})

	t.Run("same currency is a no-op keeping the default balance", func(t *testing.T) {
		p := NewPortfolio(nil)
		require.NoError(t, p.SetAccountCurrency("USD"))
		equalDec(t, "100000", p.Cash())
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		p := NewPortfolio(nil)
		assert.Error(t, p.SetAccountCurrency("us"))
	})

	t.Run("fails after a security is added", func(t *testing.T) {
		reg := NewSecurityRegistry()
		newTestSecurity(t, reg, "AAPL", Equity, "100")
		p := NewPortfolio(reg)
		assert.Error(t, p.SetAccountCurrency("EUR"))
	})

	t.Run("fails after cash is set", func(t *testing.T) {
		p := NewPortfolio(nil)
		p.SetCash(D(5000))
		assert.Error(t, p.SetAccountCurrency("EUR"))
	})
}

func TestSetCurrencyCash(t *testing.T) {
	p := NewPortfolio(nil)
	p.SetCurrencyCash("eur", D(1000), D("1.1"))

	eur, ok := p.CashBook().Get("EUR")
	require.True(t, ok)
	equalDec(t, "1000", eur.Amount())
	equalDec(t, "1.1", eur.ConversionRate())

	// updating an existing entry keeps the same Cash instance
	p.SetCurrencyCash("EUR", D(2000), D("1.2"))
	same, _ := p.CashBook().Get("EUR")
	assert.Same(t, eur, same)
	equalDec(t, "2000", eur.Amount())

	equalDec(t, "102400", p.Cash(), "100000 USD + 2000 EUR at 1.2")
}

func TestTotalPortfolioValueByAssetClass(t *testing.T) {
	reg := NewSecurityRegistry()
	equity := newTestSecurity(t, reg, "AAPL", Equity, "100")
	forex := newTestSecurity(t, reg, "EURUSD", Forex, "1.1")
	future := newTestSecurity(t, reg, "ES", Future, "5000")
	p := NewPortfolio(reg)

	equity.Holdings().SetHoldings(D(90), D(50))  // marked value 5000
	forex.Holdings().SetHoldings(D(1), D(10000)) // cash settled, not counted
	future.Holdings().SetHoldings(D(4900), D(2)) // unrealized profit 200
	p.InvalidateTotalPortfolioValue()

	equalDec(t, "105200", p.TotalPortfolioValue())
}

func TestTotalPortfolioValueCache(t *testing.T) {
	reg := NewSecurityRegistry()
	equity := newTestSecurity(t, reg, "AAPL", Equity, "100")
	p := NewPortfolio(reg)
	equity.Holdings().SetHoldings(D(100), D(50))
	p.InvalidateTotalPortfolioValue()

	equalDec(t, "105000", p.TotalPortfolioValue())

	// a price move alone does not stale the cache; the market data loop
	// owns that invalidation
	equity.SetMarketPrice(D(120))
	equalDec(t, "105000", p.TotalPortfolioValue())

	p.InvalidateTotalPortfolioValue()
	equalDec(t, "106000", p.TotalPortfolioValue())

	// any cash book mutation stales it automatically
	p.CashBook().Ensure("USD").AddAmount(D(1000))
	equalDec(t, "107000", p.TotalPortfolioValue())

	// unsettled book mutations too
	p.UnsettledCashBook().Ensure("USD").AddAmount(D(500))
	equalDec(t, "107500", p.TotalPortfolioValue())
}

func TestHoldingsAggregates(t *testing.T) {
	reg := NewSecurityRegistry()
	long := newTestSecurity(t, reg, "AAPL", Equity, "100")
	short := newTestSecurity(t, reg, "MSFT", Equity, "200")
	p := NewPortfolio(reg)

	long.Holdings().SetHoldings(D(90), D(10))   // cost 900, value 1000, profit 100
	short.Holdings().SetHoldings(D(210), D(-5)) // cost -1050, value -1000, profit 50

	assert.True(t, p.Invested())
	equalDec(t, "2000", p.TotalHoldingsValue())
	equalDec(t, "1950", p.TotalAbsoluteHoldingsCost())
	equalDec(t, "150", p.TotalUnrealizedProfit())
}

func TestProcessFill(t *testing.T) {
	t.Run("routes to the security's applier", func(t *testing.T) {
		reg := NewSecurityRegistry()
		sec := newTestSecurity(t, reg, "AAPL", Equity, "100")
		applier := &stubFillApplier{applyFunds: true}
		sec.SetFillApplier(applier)
		p := NewPortfolio(reg)

		fill := Fill{Symbol: sec.Symbol(), TimeUTC: time.Now().UTC(), Price: D(100), Quantity: D(-10)}
		require.NoError(t, p.ProcessFill(fill))

		require.Len(t, applier.fills, 1)
		equalDec(t, "101000", p.Cash(), "sale of 10 at 100 under immediate settlement")
	})

	t.Run("unknown symbol", func(t *testing.T) {
		p := NewPortfolio(nil)
		assert.Error(t, p.ProcessFill(Fill{Symbol: NewSymbol("GHOST")}))
	})

	t.Run("missing applier", func(t *testing.T) {
		reg := NewSecurityRegistry()
		sec := newTestSecurity(t, reg, "AAPL", Equity, "100")
		p := NewPortfolio(reg)
		assert.Error(t, p.ProcessFill(Fill{Symbol: sec.Symbol()}))
	})

	t.Run("applier errors are wrapped", func(t *testing.T) {
		reg := NewSecurityRegistry()
		sec := newTestSecurity(t, reg, "AAPL", Equity, "100")
		sec.SetFillApplier(&stubFillApplier{err: assert.AnError})
		p := NewPortfolio(reg)

		err := p.ProcessFill(Fill{Symbol: sec.Symbol()})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestApplyDividend(t *testing.T) {
	newFixture := func(t *testing.T, quantity string) (*Portfolio, Dividend) {
		reg := NewSecurityRegistry()
		sec := newTestSecurity(t, reg, "AAPL", Equity, "100")
		sec.Holdings().SetHoldings(D(100), D(quantity))
		p := NewPortfolio(reg)
		return p, Dividend{Symbol: sec.Symbol(), Distribution: D("0.5")}
	}

	t.Run("raw mode credits longs", func(t *testing.T) {
		p, div := newFixture(t, "100")
		require.NoError(t, p.ApplyDividend(div, false, Raw))
		equalDec(t, "100050", p.Cash())
	})

	t.Run("split adjusted mode credits too", func(t *testing.T) {
		p, div := newFixture(t, "100")
		require.NoError(t, p.ApplyDividend(div, false, SplitAdjusted))
		equalDec(t, "100050", p.Cash())
	})

	t.Run("shorts pay", func(t *testing.T) {
		p, div := newFixture(t, "-100")
		require.NoError(t, p.ApplyDividend(div, false, Raw))
		equalDec(t, "99950", p.Cash())
	})

	t.Run("adjusted feeds already price it in", func(t *testing.T) {
		p, div := newFixture(t, "100")
		require.NoError(t, p.ApplyDividend(div, false, Adjusted))
		equalDec(t, "100000", p.Cash())
	})

	t.Run("live runs defer to the brokerage cash feed", func(t *testing.T) {
		p, div := newFixture(t, "100")
		require.NoError(t, p.ApplyDividend(div, true, Raw))
		equalDec(t, "100000", p.Cash())
	})

	t.Run("unknown symbol", func(t *testing.T) {
		p := NewPortfolio(nil)
		assert.Error(t, p.ApplyDividend(Dividend{Symbol: NewSymbol("GHOST")}, false, Raw))
	})
}

func TestApplySplit(t *testing.T) {
	newFixture := func(t *testing.T, secType SecurityType) (*Portfolio, *Security) {
		reg := NewSecurityRegistry()
		sec := newTestSecurity(t, reg, "AAPL", secType, "100")
		sec.Holdings().SetHoldings(D(10), D(105))
		return NewPortfolio(reg), sec
	}
	split := Split{Symbol: NewSymbol("AAPL"), SplitFactor: D(2), ReferencePrice: D(50)}

	t.Run("rescales and monetizes the fraction", func(t *testing.T) {
		p, sec := newFixture(t, Equity)
		require.NoError(t, p.ApplySplit(split, false, Raw))

		h := sec.Holdings()
		equalDec(t, "52", h.Quantity(), "105 / 2 truncated toward zero")
		equalDec(t, "20", h.AveragePrice())
		// the 0.5 share remainder is cashed at referencePrice x splitFactor
		equalDec(t, "100050", p.Cash())
	})

	t.Run("only equities split", func(t *testing.T) {
		p, sec := newFixture(t, Crypto)
		require.NoError(t, p.ApplySplit(split, false, Raw))
		equalDec(t, "105", sec.Holdings().Quantity())
		equalDec(t, "100000", p.Cash())
	})

	t.Run("adjusted feeds rescale prices instead", func(t *testing.T) {
		p, sec := newFixture(t, Equity)
		require.NoError(t, p.ApplySplit(split, false, Adjusted))
		equalDec(t, "105", sec.Holdings().Quantity())
	})

	t.Run("live always applies", func(t *testing.T) {
		p, sec := newFixture(t, Equity)
		require.NoError(t, p.ApplySplit(split, true, Adjusted))
		equalDec(t, "52", sec.Holdings().Quantity())
		equalDec(t, "100050", p.Cash())
	})

	t.Run("unknown symbol", func(t *testing.T) {
		p := NewPortfolio(nil)
		assert.Error(t, p.ApplySplit(split, false, Raw))
	})
}

func TestScanForCashSettlement(t *testing.T) {
	due := time.Date(2025, 7, 9, 12, 0, 0, 0, time.UTC)
	later := time.Date(2025, 7, 11, 12, 0, 0, 0, time.UTC)

	newFixture := func(t *testing.T) *Portfolio {
		p := NewPortfolio(nil)
		p.UnsettledCashBook().Ensure("USD").AddAmount(D(10000))
		p.AddUnsettledCashAmount(UnsettledCashAmount{SettlementTimeUTC: due, Currency: "USD", Amount: D(10000)})
		return p
	}

	t.Run("before the instant nothing settles", func(t *testing.T) {
		p := newFixture(t)
		p.ScanForCashSettlement(due.Add(-time.Second))
		equalDec(t, "100000", p.Cash())
		equalDec(t, "10000", p.UnsettledCash())
		assert.Len(t, p.UnsettledCashAmounts(), 1)
	})

	t.Run("at the instant the amount moves books", func(t *testing.T) {
		p := newFixture(t)
		p.ScanForCashSettlement(due)
		equalDec(t, "110000", p.Cash())
		equalDec(t, "0", p.UnsettledCash())
		assert.Empty(t, p.UnsettledCashAmounts())
	})

	t.Run("settlement is exactly once", func(t *testing.T) {
		p := newFixture(t)
		p.ScanForCashSettlement(due)
		p.ScanForCashSettlement(later)
		equalDec(t, "110000", p.Cash())
		equalDec(t, "0", p.UnsettledCash())
	})

	t.Run("each entry is judged by its own instant", func(t *testing.T) {
		p := newFixture(t)
		p.UnsettledCashBook().Ensure("USD").AddAmount(D(5000))
		// queued after the first entry but due later
		p.AddUnsettledCashAmount(UnsettledCashAmount{SettlementTimeUTC: later, Currency: "USD", Amount: D(5000)})

		p.ScanForCashSettlement(due)
		equalDec(t, "110000", p.Cash())
		equalDec(t, "5000", p.UnsettledCash())
		assert.Len(t, p.UnsettledCashAmounts(), 1)

		p.ScanForCashSettlement(later)
		equalDec(t, "115000", p.Cash())
		equalDec(t, "0", p.UnsettledCash())
	})
}

// TestDelayedSettlementEndToEnd walks a T+2 sale from fill to settled cash.
func TestDelayedSettlementEndToEnd(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	reg := NewSecurityRegistry()
	sec := newTestSecurity(t, reg, "AAPL", Equity, "100")
	sec.SetLocation(ny)
	sec.SetSettlementModel(DelayedSettlementModel{NumberOfDays: 2, TimeOfDay: 8 * time.Hour})
	sec.SetFillApplier(&stubFillApplier{applyFunds: true})
	p := NewPortfolio(reg)

	// sell 100 at 100 on Monday 2025-07-07, 15:00 UTC
	fill := Fill{
		Symbol:   sec.Symbol(),
		TimeUTC:  time.Date(2025, 7, 7, 15, 0, 0, 0, time.UTC),
		Price:    D(100),
		Quantity: D(-100),
	}
	require.NoError(t, p.ProcessFill(fill))

	equalDec(t, "100000", p.Cash())
	equalDec(t, "10000", p.UnsettledCash())
	equalDec(t, "110000", p.TotalPortfolioValue(), "valuation sees the sale at once")

	// Tuesday: still pending
	p.ScanForCashSettlement(time.Date(2025, 7, 8, 12, 0, 0, 0, time.UTC))
	equalDec(t, "100000", p.Cash())

	// Wednesday 8 AM New York (12:00 UTC in July): funds settle
	p.ScanForCashSettlement(time.Date(2025, 7, 9, 12, 0, 0, 0, time.UTC))
	equalDec(t, "110000", p.Cash())
	equalDec(t, "0", p.UnsettledCash())
	equalDec(t, "110000", p.TotalPortfolioValue(), "settlement moves cash between books without changing the total")

	// rerunning the scan is a no-op
	p.ScanForCashSettlement(time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC))
	equalDec(t, "110000", p.Cash())
}

func TestMarginRemaining(t *testing.T) {
	reg := NewSecurityRegistry()
	sec := newTestSecurity(t, reg, "AAPL", Equity, "100")
	p := NewPortfolio(reg)
	sec.Holdings().SetHoldings(D(100), D(100)) // value 10000, maintenance 5000
	p.Positions().GetOrCreateDefaultGroup(sec)
	p.InvalidateTotalPortfolioValue()

	equalDec(t, "5000", p.TotalMarginUsed())
	equalDec(t, "105000", p.MarginRemaining(), "110000 total - 5000 used")

	p.UnsettledCashBook().Ensure("USD").AddAmount(D(10000))
	equalDec(t, "105000", p.MarginRemaining(), "unsettled cash raises the total but is excluded from margin")
}

func TestGetMarginRemaining(t *testing.T) {
	reg := NewSecurityRegistry()
	sec := newTestSecurity(t, reg, "AAPL", Equity, "100")
	p := NewPortfolio(reg)
	sec.Holdings().SetHoldings(D(100), D(100))
	p.InvalidateTotalPortfolioValue()

	bp, err := p.GetMarginRemaining(sec.Symbol(), Buy)
	require.NoError(t, err)
	equalDec(t, "105000", bp.Value())

	// closing the long frees its reserved margin
	bp, err = p.GetMarginRemaining(sec.Symbol(), Sell)
	require.NoError(t, err)
	equalDec(t, "110000", bp.Value())

	_, err = p.GetMarginRemaining(NewSymbol("GHOST"), Buy)
	assert.Error(t, err)
}

func TestTransactionRecords(t *testing.T) {
	p := NewPortfolio(nil)
	at := time.Date(2025, 7, 7, 16, 0, 0, 0, time.UTC)
	p.AddTransactionRecord(at, D(125))
	p.AddTransactionRecord(at.Add(time.Hour), D(-40))

	records := p.TransactionRecords()
	require.Len(t, records, 2)
	assert.Equal(t, at, records[0].Time)
	equalDec(t, "125", records[0].ProfitLoss)
	equalDec(t, "-40", records[1].ProfitLoss)
}
