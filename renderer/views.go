package renderer

import (
	"strings"

	"github.com/google/uuid"
	portfolio "github.com/venturetk/VenturePortfolio"
	"github.com/venturetk/VenturePortfolio/date"
)

// AssetList is the view of the asset registry.
type AssetList struct {
	Assets []AssetRow
}

// AssetRow is one registered asset with its reference price.
type AssetRow struct {
	Name  string
	Price portfolio.Money
	Quote bool
}

// NewAssetList builds the asset view of p.
func NewAssetList(p *portfolio.Portfolio) *AssetList {
	v := &AssetList{Assets: make([]AssetRow, 0)}
	for _, a := range p.Assets() {
		v.Assets = append(v.Assets, AssetRow{
			Name:  a.Name,
			Price: portfolio.M(a.Price, p.Quote()),
			Quote: a.Name == p.Quote(),
		})
	}
	return v
}

// WalletList is the view of the wallets and their position counts.
type WalletList struct {
	Wallets []WalletRow
}

type WalletRow struct {
	Name      string
	Positions int
}

// NewWalletList builds the wallet view of p.
func NewWalletList(p *portfolio.Portfolio) *WalletList {
	v := &WalletList{Wallets: make([]WalletRow, 0)}
	for _, w := range p.Wallets() {
		v.Wallets = append(v.Wallets, WalletRow{Name: w.Name, Positions: w.Len()})
	}
	return v
}

// PositionList is the view of one wallet content.
type PositionList struct {
	Wallet    string
	Positions []portfolio.Position
}

// NewPositionList builds the position view of a wallet of p.
func NewPositionList(p *portfolio.Portfolio, wallet string) (*PositionList, error) {
	positions, err := p.Positions(wallet)
	if err != nil {
		return nil, err
	}
	return &PositionList{Wallet: wallet, Positions: positions}, nil
}

// TransactionList is the view of part of the ledger.
type TransactionList struct {
	Transactions []TransactionRow
	Rejections   []string
}

// TransactionRow is a transaction flattened into display strings.
type TransactionRow struct {
	ID       uuid.UUID
	At       string
	Type     string
	Wallets  string
	Sent     string
	Received string
	Fee      string
	Realized string
	Class    string
}

// NewTransactionList builds the view of txs. Rejections of p concerning
// one of txs are listed too.
func NewTransactionList(p *portfolio.Portfolio, txs []portfolio.Transaction) *TransactionList {
	v := &TransactionList{Transactions: make([]TransactionRow, 0, len(txs))}
	shown := make(map[uuid.UUID]bool)
	for _, tx := range txs {
		shown[tx.ID] = true
		row := TransactionRow{
			ID:       tx.ID,
			At:       tx.At.String(),
			Type:     string(tx.Type),
			Wallets:  walletsOf(tx),
			Sent:     legString(tx.Sent),
			Received: legString(tx.Received),
			Fee:      legString(tx.Fee),
			Class:    tx.Class,
		}
		if m, ok := p.Realized(tx.ID); ok && tx.Type == portfolio.TxOrder {
			row.Realized = m.SignedString()
		}
		v.Transactions = append(v.Transactions, row)
	}
	for _, r := range p.Rejections() {
		if shown[r.TxID] {
			v.Rejections = append(v.Rejections, r.Error())
		}
	}
	return v
}

func walletsOf(tx portfolio.Transaction) string {
	if tx.Type == portfolio.TxInternal {
		return tx.Origin + " → " + tx.Destination
	}
	return strings.Join(tx.Wallets(), ", ")
}

func legString(l *portfolio.Leg) string {
	if l == nil {
		return ""
	}
	return l.String()
}

// FeeList is the view of the fee ledger.
type FeeList struct {
	Fees  []portfolio.FeeEntry
	Total portfolio.Money
}

// NewFeeList builds the fee view of p, restricted to the entries accepted by keep (all when nil).
func NewFeeList(p *portfolio.Portfolio, keep func(portfolio.FeeEntry) bool) *FeeList {
	v := &FeeList{Fees: make([]portfolio.FeeEntry, 0), Total: portfolio.M(0, p.Quote())}
	for f := range p.Fees().All() {
		if keep != nil && !keep(f) {
			continue
		}
		v.Fees = append(v.Fees, f)
		v.Total = v.Total.Add(f.Amount)
	}
	return v
}

// GainList is the view of the gain/loss ledger.
type GainList struct {
	Gains   []portfolio.GainLossEntry
	Total   portfolio.Money
	Periods []PeriodTotal
}

// PeriodTotal is the net gain or loss realized within a period.
type PeriodTotal struct {
	Period string
	Total  portfolio.Money
}

// NewGainList builds the gain/loss view of p, restricted to the entries accepted by keep (all when nil).
func NewGainList(p *portfolio.Portfolio, keep func(portfolio.GainLossEntry) bool) *GainList {
	v := &GainList{Gains: make([]portfolio.GainLossEntry, 0), Total: portfolio.M(0, p.Quote())}
	for g := range p.Gains().All() {
		if keep != nil && !keep(g) {
			continue
		}
		v.Gains = append(v.Gains, g)
		v.Total = v.Total.Add(g.Amount)
	}
	return v
}

// GroupBy fills Periods with the subtotals of the listed gains per period, oldest first.
func (v *GainList) GroupBy(period date.Period) {
	v.Periods = v.Periods[:0]
	for _, g := range v.Gains {
		label := period.Label(g.At.Date)
		if n := len(v.Periods); n > 0 && v.Periods[n-1].Period == label {
			v.Periods[n-1].Total = v.Periods[n-1].Total.Add(g.Amount)
			continue
		}
		v.Periods = append(v.Periods, PeriodTotal{Period: label, Total: g.Amount})
	}
}
