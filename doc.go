// Package fundbook is an average-cost portfolio accounting engine.
//
// It converts an ordered stream of buy/sell trades per (category, symbol)
// pair into a running position (quantity held, weighted average cost) and
// realized profit/loss, aggregates symbols into category totals and
// categories into portfolio totals, and derives each category's cash
// balance from its allocated capital and the raw cash effect of its trades.
//
// The engine is a library-level computation core: it consumes plain records
// through the Repository interface and returns plain aggregates. It knows
// nothing about HTTP, sessions or display formatting; the sqlstore, server,
// renderer and cmd packages are thin shells around it.
//
// All arithmetic is exact fixed-point decimal. Recomputation is idempotent:
// re-running any derivation on unchanged input yields bit-for-bit identical
// results.
package fundbook
