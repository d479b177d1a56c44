package portfolio

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/venturetk/VenturePortfolio/date"
)

// Ledger represents a list of transactions.
//
// In a Ledger transactions are always in chronological order. Transactions
// sharing the same stamp keep their insertion order.
type Ledger struct {
	transactions []*Transaction
	index        map[uuid.UUID]*Transaction
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		transactions: make([]*Transaction, 0),
		index:        make(map[uuid.UUID]*Transaction),
	}
}

// Add appends transactions to this ledger and maintains the chronological order of transactions.
func (l *Ledger) Add(txs ...*Transaction) error {
	for _, tx := range txs {
		if _, exists := l.index[tx.ID]; exists {
			return fmt.Errorf("transaction %s already in the ledger", tx.ID)
		}
	}
	for _, tx := range txs {
		l.transactions = append(l.transactions, tx)
		l.index[tx.ID] = tx
	}
	l.stableSort()
	return nil
}

// Remove removes the transaction with this id.
func (l *Ledger) Remove(id uuid.UUID) error {
	if _, exists := l.index[id]; !exists {
		return fmt.Errorf("%s: %w", id, ErrTransactionNotFound)
	}
	delete(l.index, id)
	l.transactions = slices.DeleteFunc(l.transactions, func(tx *Transaction) bool { return tx.ID == id })
	return nil
}

// Get returns the transaction with this id, or nil if unknown.
func (l *Ledger) Get(id uuid.UUID) *Transaction {
	return l.index[id]
}

// Len returns the number of transactions.
func (l *Ledger) Len() int { return len(l.transactions) }

// Transactions returns an iterator that yields each transaction in chronological order.
// A transaction is yielded only if it is accepted by every filter.
func (l *Ledger) Transactions(filters ...func(*Transaction) bool) iter.Seq2[int, *Transaction] {
	return func(yield func(int, *Transaction) bool) {
		for i, tx := range l.transactions {
			accept := true
			for _, filter := range filters {
				if !filter(tx) {
					accept = false
					break
				}
			}
			if !accept {
				continue
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

// clone returns a shallow copy. Transactions are immutable so they are shared.
func (l *Ledger) clone() *Ledger {
	c := &Ledger{
		transactions: slices.Clone(l.transactions),
		index:        make(map[uuid.UUID]*Transaction, len(l.index)),
	}
	for id, tx := range l.index {
		c.index[id] = tx
	}
	return c
}

// stableSort sorts the ledger by transaction stamp. The sort is stable, meaning
// transactions with the same stamp maintain their original relative order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].At.Before(l.transactions[j].At)
	})
}

// ByType returns a predicate that filters transactions by type.
func ByType(t TxType) func(*Transaction) bool {
	return func(tx *Transaction) bool { return tx.Type == t }
}

// ByWallet returns a predicate that filters transactions touching a wallet.
func ByWallet(name string) func(*Transaction) bool {
	return func(tx *Transaction) bool { return slices.Contains(tx.Wallets(), name) }
}

// ByAsset returns a predicate that filters transactions moving an asset.
func ByAsset(asset string) func(*Transaction) bool {
	return func(tx *Transaction) bool { return tx.RefersToAsset(asset) }
}

// InRange returns a predicate that filters transactions dated within r.
func InRange(r date.Range) func(*Transaction) bool {
	return func(tx *Transaction) bool { return r.Contains(tx.At.Date) }
}
