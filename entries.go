package portfolio

import (
	"iter"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/venturetk/VenturePortfolio/date"
)

// FeeEntry records the fee paid by a transaction.
type FeeEntry struct {
	ID       uuid.UUID
	TxID     uuid.UUID
	At       date.Stamp
	Asset    string
	Quantity Quantity
	Amount   Money
}

// GainLossEntry records a realized gain (positive) or loss (negative).
type GainLossEntry struct {
	ID        uuid.UUID
	TxID      uuid.UUID
	At        date.Stamp
	Wallet    string
	Asset     string
	Quantity  Quantity
	Proceeds  Money
	CostBasis Money
	Amount    Money
}

func (e FeeEntry) entryID() uuid.UUID      { return e.ID }
func (e FeeEntry) stamp() date.Stamp       { return e.At }
func (e FeeEntry) amount() Money           { return e.Amount }
func (e GainLossEntry) entryID() uuid.UUID { return e.ID }
func (e GainLossEntry) stamp() date.Stamp  { return e.At }
func (e GainLossEntry) amount() Money      { return e.Amount }

type entry interface {
	entryID() uuid.UUID
	stamp() date.Stamp
	amount() Money
}

// entryLog is a chronological log of entries.
type entryLog[T entry] struct {
	entries []T
}

// Append adds entries and keeps the log in chronological order.
// Entries with the same stamp keep their insertion order.
func (l *entryLog[T]) Append(entries ...T) {
	l.entries = append(l.entries, entries...)
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].stamp().Before(l.entries[j].stamp())
	})
}

// Remove deletes the entry with this id. It reports whether an entry was removed.
func (l *entryLog[T]) Remove(id uuid.UUID) bool {
	i := slices.IndexFunc(l.entries, func(e T) bool { return e.entryID() == id })
	if i < 0 {
		return false
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	return true
}

// All iterates over entries in chronological order.
func (l *entryLog[T]) All() iter.Seq[T] {
	return slices.Values(l.entries)
}

// Len returns the number of entries.
func (l *entryLog[T]) Len() int { return len(l.entries) }

// Total returns the sum of all entry amounts.
func (l *entryLog[T]) Total() Money {
	var total Money
	for _, e := range l.entries {
		total = total.Add(e.amount())
	}
	return total
}

// FeeLedger is the chronological log of fees.
type FeeLedger = entryLog[FeeEntry]

// GainLossLedger is the chronological log of realized gains and losses.
type GainLossLedger = entryLog[GainLossEntry]
