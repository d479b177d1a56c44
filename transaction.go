package portfolio

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venturetk/VenturePortfolio/date"
)

// TxType is a typed string identifying the kind of a transaction.
type TxType string

// Transaction types.
const (
	TxDeposit  TxType = "deposit"
	TxWithdraw TxType = "withdraw"
	TxOrder    TxType = "order"
	TxInternal TxType = "internal"
)

// ParseTxType parses a transaction type name.
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(strings.ToLower(strings.TrimSpace(s))); t {
	case TxDeposit, TxWithdraw, TxOrder, TxInternal:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type: %q", s)
	}
}

// Leg is one movement of an asset within a transaction.
// Price is the unit price captured when the transaction was built.
type Leg struct {
	Asset    string
	Quantity Quantity
	Price    Money
	Total    Money
}

func newLeg(asset string, q Quantity, price Money) *Leg {
	return &Leg{Asset: asset, Quantity: q, Price: price, Total: price.Mul(q)}
}

func (l *Leg) String() string {
	return fmt.Sprintf("%s %s @ %s", l.Quantity, l.Asset, l.Price)
}

// Transaction is an immutable ledger event.
type Transaction struct {
	ID          uuid.UUID
	Type        TxType
	At          date.Stamp
	Class       string // free classification label
	Fee         *Leg
	Received    *Leg
	Sent        *Leg
	Origin      string
	Destination string
}

// Wallets returns the wallet names the transaction refers to.
func (t *Transaction) Wallets() []string {
	var names []string
	if t.Origin != "" {
		names = append(names, t.Origin)
	}
	if t.Destination != "" && t.Destination != t.Origin {
		names = append(names, t.Destination)
	}
	return names
}

// RefersToAsset reports whether any leg of the transaction moves asset.
func (t *Transaction) RefersToAsset(asset string) bool {
	for _, l := range []*Leg{t.Fee, t.Received, t.Sent} {
		if l != nil && l.Asset == asset {
			return true
		}
	}
	return false
}

func (t *Transaction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", t.At, t.Type)
	if t.Sent != nil {
		fmt.Fprintf(&b, " sent %s from %s", t.Sent, t.Origin)
	}
	if t.Received != nil {
		fmt.Fprintf(&b, " received %s into %s", t.Received, t.Destination)
	}
	if t.Fee != nil {
		fmt.Fprintf(&b, " fee %s", t.Fee)
	}
	return b.String()
}

// LegRequest describes a leg to be priced. A nil Price is resolved by the
// portfolio price oracle, the quote asset is always priced at 1.
type LegRequest struct {
	Asset    string
	Quantity Quantity
	Price    *decimal.Decimal
}

// L returns a LegRequest for q units of asset, priced by the oracle.
func L(asset string, q Quantity) LegRequest {
	return LegRequest{Asset: asset, Quantity: q}
}

// At returns a copy of the leg request with an explicit unit price.
func (l LegRequest) At(price decimal.Decimal) LegRequest {
	l.Price = &price
	return l
}

// Request is what a caller hands to Portfolio.AddTransaction.
// A zero At is replaced by the portfolio clock.
type Request struct {
	Type        TxType
	At          date.Stamp
	Class       string
	Fee         *LegRequest
	Received    *LegRequest
	Sent        *LegRequest
	Origin      string
	Destination string
}

// NewDeposit requests a deposit of received into wallet.
func NewDeposit(at date.Stamp, wallet string, received LegRequest) Request {
	return Request{Type: TxDeposit, At: at, Received: &received, Destination: wallet}
}

// NewWithdraw requests a withdrawal of sent out of wallet.
func NewWithdraw(at date.Stamp, wallet string, sent LegRequest) Request {
	return Request{Type: TxWithdraw, At: at, Sent: &sent, Origin: wallet}
}

// NewOrder requests a trade in wallet giving sent for received.
func NewOrder(at date.Stamp, wallet string, sent, received LegRequest) Request {
	return Request{Type: TxOrder, At: at, Sent: &sent, Received: &received, Origin: wallet, Destination: wallet}
}

// NewInternal requests a transfer of sent from origin to destination.
func NewInternal(at date.Stamp, origin, destination string, sent LegRequest) Request {
	return Request{Type: TxInternal, At: at, Sent: &sent, Origin: origin, Destination: destination}
}

// WithFee returns a copy of the request with a fee leg.
func (r Request) WithFee(fee LegRequest) Request {
	r.Fee = &fee
	return r
}

// WithClass returns a copy of the request with a classification label.
func (r Request) WithClass(class string) Request {
	r.Class = class
	return r
}

// validate checks the shape of the request: legs and wallets per type, positive quantities.
func (r Request) validate() error {
	if err := checkShape(r.Type, r.Received != nil, r.Sent != nil, r.Origin, r.Destination); err != nil {
		return err
	}
	legs := []struct {
		name string
		leg  *LegRequest
	}{{"fee", r.Fee}, {"received", r.Received}, {"sent", r.Sent}}
	for _, v := range legs {
		name, l := v.name, v.leg
		if l == nil {
			continue
		}
		if l.Asset == "" {
			return fmt.Errorf("%s leg asset is missing", name)
		}
		if !l.Quantity.IsPositive() {
			return fmt.Errorf("%s leg %s: %w", name, l.Quantity, ErrInvalidQuantity)
		}
		if l.Price != nil && l.Price.IsNegative() {
			return fmt.Errorf("%s leg %s: %w", name, l.Price, ErrInvalidPrice)
		}
	}
	return nil
}

// validate checks a recorded transaction has the shape its type needs, as
// requests are checked before being recorded.
func (t *Transaction) validate() error {
	if err := checkShape(t.Type, t.Received != nil, t.Sent != nil, t.Origin, t.Destination); err != nil {
		return err
	}
	if t.At.IsZero() {
		return fmt.Errorf("date is missing")
	}
	legs := []struct {
		name string
		leg  *Leg
	}{{"fee", t.Fee}, {"received", t.Received}, {"sent", t.Sent}}
	for _, v := range legs {
		name, l := v.name, v.leg
		if l == nil {
			continue
		}
		if l.Asset == "" {
			return fmt.Errorf("%s leg asset is missing", name)
		}
		if !l.Quantity.IsPositive() {
			return fmt.Errorf("%s leg %s: %w", name, l.Quantity, ErrInvalidQuantity)
		}
		if l.Price.IsNegative() {
			return fmt.Errorf("%s leg %s: %w", name, l.Price, ErrInvalidPrice)
		}
	}
	return nil
}

// checkShape checks the legs and wallets of a transaction type: the ones it
// needs are present, the ones it does not use are absent. A fee is allowed
// on every type.
func checkShape(t TxType, received, sent bool, origin, destination string) error {
	var wantReceived, wantSent, wantOrigin, wantDestination bool
	switch t {
	case TxDeposit:
		wantReceived, wantDestination = true, true
	case TxWithdraw:
		wantSent, wantOrigin = true, true
	case TxOrder:
		wantReceived, wantSent, wantOrigin = true, true, true
		if destination != "" && destination != origin {
			return fmt.Errorf("an order settles in a single wallet, got %q and %q", origin, destination)
		}
		// the destination of an order is its origin
		destination = ""
	case TxInternal:
		wantSent, wantOrigin, wantDestination = true, true, true
	default:
		return fmt.Errorf("unknown transaction type: %q", t)
	}

	var missing, unexpected []string
	for _, v := range []struct {
		name       string
		want, have bool
	}{
		{"received", wantReceived, received},
		{"sent", wantSent, sent},
	} {
		switch {
		case v.want && !v.have:
			missing = append(missing, v.name)
		case !v.want && v.have:
			unexpected = append(unexpected, v.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(missing, ", "), ErrMissingLeg)
	}
	if len(unexpected) > 0 {
		return fmt.Errorf("%s leg on a %s: %w", strings.Join(unexpected, ", "), t, ErrUnexpectedLeg)
	}

	switch {
	case wantOrigin && origin == "":
		return fmt.Errorf("origin wallet is missing")
	case wantDestination && destination == "":
		return fmt.Errorf("destination wallet is missing")
	case !wantOrigin && origin != "":
		return fmt.Errorf("origin wallet %q on a %s: %w", origin, t, ErrUnexpectedWallet)
	case !wantDestination && destination != "":
		return fmt.Errorf("destination wallet %q on a %s: %w", destination, t, ErrUnexpectedWallet)
	}
	return nil
}

// clone returns a copy of t that shares no leg with it.
func (t *Transaction) clone() Transaction {
	c := *t
	for _, l := range []**Leg{&c.Fee, &c.Received, &c.Sent} {
		if *l != nil {
			leg := **l
			*l = &leg
		}
	}
	return c
}
