// Package accounting is the accounting core of a multi-asset trading and
// backtesting platform: the authoritative ledger that tracks cash across
// currencies, values holdings, defers settlement of sale proceeds and answers
// "how much can I trade" margin questions.
//
// The core functionalities include:
//   - Cash Books: per-currency balances with conversion rates to the account
//     currency, one book for settled and one for unsettled funds.
//   - Settlement Models: immediate posting or delayed T+N posting of sale
//     proceeds, driven by the market calendar of the security's venue.
//   - Portfolio Ledger: the top-level aggregate that routes fills, dividends
//     and splits, scans pending settlements, and maintains a lazily
//     invalidated total-portfolio-value cache.
//   - Margin Contract: immutable parameter and result types through which
//     pluggable per-asset-class buying power models answer margin queries.
//   - Margin Calls: detection of maintenance margin breaches and generation
//     of the liquidating orders needed to cure them.
//
// All monetary arithmetic uses exact fixed-point decimals; binary floating
// point is never used for amounts, rates or margin figures. Order matching,
// market data feeds, venue calendars and persistence are external
// collaborators consumed through small interfaces.
package accounting
