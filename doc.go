// Package portfolio tracks personal holdings from a ledger of financial events.
//
// A Portfolio owns an asset registry, a set of named wallets and a Ledger of
// immutable transactions (deposits, withdrawals, orders and internal
// transfers). Wallet positions, the fee ledger and the realized gain/loss
// ledger are never edited directly: they are rebuilt by replaying the whole
// ledger in chronological order every time it changes (see Project). Two
// replays of the same ledger produce the same state, identifiers included.
//
// Cost basis follows the weighted-average method: an order disposing of part
// of a position removes cost in proportion to the quantity sold, so the cost
// per unit of what remains is unchanged.
//
// Prices of transaction legs are captured once, when the transaction is
// built, from an explicit price or a PriceOracle. Portfolios are persisted
// as JSONL (see Marshal and FileStore) or in SQLite (see package sqlite).
//
// This package is the foundation of the `vpm` command-line tool.
package portfolio
