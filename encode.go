package portfolio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venturetk/VenturePortfolio/date"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Record kinds of the JSONL format. Each line is one JSON object whose
// "record" field tells what it holds.
const (
	recPortfolio = "portfolio"
	recAsset     = "asset"
	recWallet    = "wallet"
	recTx        = "tx"
	recPosition  = "position"
	recFee       = "fee"
	recGain      = "gain"
)

// legJSON is the persisted shape of a leg, its money in the quote currency.
type legJSON struct {
	Asset    string          `json:"asset"`
	Quantity Quantity        `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

func legJSONOf(l *Leg) *legJSON {
	if l == nil {
		return nil
	}
	return &legJSON{Asset: l.Asset, Quantity: l.Quantity, Price: l.Price.Decimal(), Total: l.Total.Decimal()}
}

// Marshal encodes the portfolio as JSONL: the portfolio header, assets,
// wallets, the transaction log, then the derived positions, fees and gains.
func Marshal(p *Portfolio) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeState(&buf, p.State()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a JSONL document written by Marshal. See Restore.
func Unmarshal(data []byte, opts ...Option) (*Portfolio, error) {
	s, err := DecodeState(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Restore(s, opts...)
}

// EncodeState writes s as JSONL to w.
func EncodeState(w io.Writer, s State) error {
	var lines []json.Marshaler
	lines = append(lines, new(jsonObjectWriter).
		Append("record", recPortfolio).
		Append("name", s.Name).
		Append("quote", s.Quote).
		Append("withdrawBasis", s.WithdrawBasis.String()).
		Append("internalTransfers", s.Transfers.String()))
	for _, a := range s.Assets {
		lines = append(lines, new(jsonObjectWriter).
			Append("record", recAsset).
			Append("name", a.Name).
			Append("price", a.Price))
	}
	for _, name := range s.Wallets {
		lines = append(lines, new(jsonObjectWriter).
			Append("record", recWallet).
			Append("name", name))
	}
	for _, tx := range s.Transactions {
		line := new(jsonObjectWriter).
			Append("record", recTx).
			Append("id", tx.ID).
			Append("type", tx.Type).
			Append("at", tx.At).
			Optional("class", tx.Class).
			Optional("origin", tx.Origin).
			Optional("destination", tx.Destination).
			PrefixFrom("fee", legJSONOf(tx.Fee)).
			PrefixFrom("sent", legJSONOf(tx.Sent)).
			PrefixFrom("received", legJSONOf(tx.Received))
		if m, ok := s.Realized[tx.ID]; ok {
			line.Append("realized", m.Decimal())
		}
		lines = append(lines, line)
	}
	for _, name := range s.Wallets {
		for _, pos := range s.Positions[name] {
			lines = append(lines, new(jsonObjectWriter).
				Append("record", recPosition).
				Append("wallet", name).
				Append("id", pos.ID).
				Append("asset", pos.Asset).
				Append("quantity", pos.Quantity).
				Append("costBasis", pos.CostBasis.Decimal()).
				Append("openPrice", pos.OpenPrice.Decimal()).
				Append("opened", pos.Opened))
		}
	}
	for _, f := range s.Fees {
		lines = append(lines, new(jsonObjectWriter).
			Append("record", recFee).
			Append("id", f.ID).
			Append("tx", f.TxID).
			Append("at", f.At).
			Append("asset", f.Asset).
			Append("quantity", f.Quantity).
			Append("amount", f.Amount.Decimal()))
	}
	for _, g := range s.Gains {
		lines = append(lines, new(jsonObjectWriter).
			Append("record", recGain).
			Append("id", g.ID).
			Append("tx", g.TxID).
			Append("at", g.At).
			Append("wallet", g.Wallet).
			Append("asset", g.Asset).
			Append("quantity", g.Quantity).
			Append("proceeds", g.Proceeds.Decimal()).
			Append("costBasis", g.CostBasis.Decimal()).
			Append("amount", g.Amount.Decimal()))
	}

	for _, line := range lines {
		b, err := line.MarshalJSON()
		if err != nil {
			return err
		}
		b = append(b, '\n')
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// DecodeState reads a JSONL document written by EncodeState.
func DecodeState(r io.Reader) (State, error) {
	s := State{
		WithdrawBasis: OpenPrice,
		Transfers:     TransferIgnore,
		Realized:      make(map[uuid.UUID]Money),
		Positions:     make(map[string][]Position),
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	header := false
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue // Skip empty lines
		}
		var id struct {
			Record string `json:"record"`
		}
		if err := json.Unmarshal(line, &id); err != nil {
			return State{}, fmt.Errorf("line %d: could not identify record: %w", n, err)
		}
		if !header && id.Record != recPortfolio {
			return State{}, fmt.Errorf("line %d: expected a %q record first, got %q", n, recPortfolio, id.Record)
		}

		var err error
		switch id.Record {
		case recPortfolio:
			if header {
				err = fmt.Errorf("duplicate %q record", recPortfolio)
				break
			}
			var v struct {
				Name              string `json:"name"`
				Quote             string `json:"quote"`
				WithdrawBasis     string `json:"withdrawBasis"`
				InternalTransfers string `json:"internalTransfers"`
			}
			if err = json.Unmarshal(line, &v); err != nil {
				break
			}
			s.Name, s.Quote, header = v.Name, v.Quote, true
			// files written before the policies were stored use the defaults
			if v.WithdrawBasis != "" {
				if s.WithdrawBasis, err = ParseDisposalBasis(v.WithdrawBasis); err != nil {
					break
				}
			}
			if v.InternalTransfers != "" {
				s.Transfers, err = ParseTransferPolicy(v.InternalTransfers)
			}
		case recAsset:
			var v struct {
				Name  string          `json:"name"`
				Price decimal.Decimal `json:"price"`
			}
			err = json.Unmarshal(line, &v)
			s.Assets = append(s.Assets, Asset{Name: v.Name, Price: v.Price})
		case recWallet:
			var v struct {
				Name string `json:"name"`
			}
			err = json.Unmarshal(line, &v)
			s.Wallets = append(s.Wallets, v.Name)
		case recTx:
			var tx Transaction
			var realized *decimal.Decimal
			tx, realized, err = decodeTx(line, s.Quote)
			if err == nil {
				s.Transactions = append(s.Transactions, tx)
				if realized != nil {
					s.Realized[tx.ID] = M(*realized, s.Quote)
				}
			}
		case recPosition:
			var v struct {
				Wallet    string          `json:"wallet"`
				ID        uuid.UUID       `json:"id"`
				Asset     string          `json:"asset"`
				Quantity  Quantity        `json:"quantity"`
				CostBasis decimal.Decimal `json:"costBasis"`
				OpenPrice decimal.Decimal `json:"openPrice"`
				Opened    date.Stamp      `json:"opened"`
			}
			err = json.Unmarshal(line, &v)
			s.Positions[v.Wallet] = append(s.Positions[v.Wallet], Position{
				ID:        v.ID,
				Asset:     v.Asset,
				Quantity:  v.Quantity,
				CostBasis: M(v.CostBasis, s.Quote),
				OpenPrice: M(v.OpenPrice, s.Quote),
				Opened:    v.Opened,
			})
		case recFee:
			var v struct {
				ID       uuid.UUID       `json:"id"`
				TxID     uuid.UUID       `json:"tx"`
				At       date.Stamp      `json:"at"`
				Asset    string          `json:"asset"`
				Quantity Quantity        `json:"quantity"`
				Amount   decimal.Decimal `json:"amount"`
			}
			err = json.Unmarshal(line, &v)
			s.Fees = append(s.Fees, FeeEntry{
				ID: v.ID, TxID: v.TxID, At: v.At, Asset: v.Asset, Quantity: v.Quantity,
				Amount: M(v.Amount, s.Quote),
			})
		case recGain:
			var v struct {
				ID        uuid.UUID       `json:"id"`
				TxID      uuid.UUID       `json:"tx"`
				At        date.Stamp      `json:"at"`
				Wallet    string          `json:"wallet"`
				Asset     string          `json:"asset"`
				Quantity  Quantity        `json:"quantity"`
				Proceeds  decimal.Decimal `json:"proceeds"`
				CostBasis decimal.Decimal `json:"costBasis"`
				Amount    decimal.Decimal `json:"amount"`
			}
			err = json.Unmarshal(line, &v)
			s.Gains = append(s.Gains, GainLossEntry{
				ID: v.ID, TxID: v.TxID, At: v.At, Wallet: v.Wallet, Asset: v.Asset, Quantity: v.Quantity,
				Proceeds:  M(v.Proceeds, s.Quote),
				CostBasis: M(v.CostBasis, s.Quote),
				Amount:    M(v.Amount, s.Quote),
			})
		default:
			err = fmt.Errorf("unknown record %q", id.Record)
		}
		if err != nil {
			return State{}, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return State{}, fmt.Errorf("error reading from input: %w", err)
	}
	if !header {
		return State{}, fmt.Errorf("missing %q record", recPortfolio)
	}
	return s, nil
}

// decodeTx reads a "tx" record. Legs are stored as prefixed fields.
func decodeTx(line []byte, quote string) (Transaction, *decimal.Decimal, error) {
	var v struct {
		ID          uuid.UUID        `json:"id"`
		Type        TxType           `json:"type"`
		At          date.Stamp       `json:"at"`
		Class       string           `json:"class"`
		Origin      string           `json:"origin"`
		Destination string           `json:"destination"`
		Realized    *decimal.Decimal `json:"realized"`
	}
	if err := json.Unmarshal(line, &v); err != nil {
		return Transaction{}, nil, err
	}
	if _, err := ParseTxType(string(v.Type)); err != nil {
		return Transaction{}, nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Transaction{}, nil, err
	}
	tx := Transaction{
		ID:          v.ID,
		Type:        v.Type,
		At:          v.At,
		Class:       v.Class,
		Origin:      v.Origin,
		Destination: v.Destination,
	}
	var err error
	if tx.Fee, err = decodeLeg(fields, "fee", quote); err != nil {
		return Transaction{}, nil, err
	}
	if tx.Sent, err = decodeLeg(fields, "sent", quote); err != nil {
		return Transaction{}, nil, err
	}
	if tx.Received, err = decodeLeg(fields, "received", quote); err != nil {
		return Transaction{}, nil, err
	}
	return tx, v.Realized, nil
}

// decodeLeg rebuilds the leg written by PrefixFrom(prefix, ...), nil if absent.
func decodeLeg(fields map[string]json.RawMessage, prefix, quote string) (*Leg, error) {
	if _, ok := fields[prefix+"Asset"]; !ok {
		return nil, nil
	}
	var l legJSON
	for key, dst := range map[string]any{
		"Asset":    &l.Asset,
		"Quantity": &l.Quantity,
		"Price":    &l.Price,
		"Total":    &l.Total,
	} {
		raw, ok := fields[prefix+key]
		if !ok {
			return nil, fmt.Errorf("%s leg: missing %q", prefix, prefix+key)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("%s leg: %w", prefix, err)
		}
	}
	return &Leg{Asset: l.Asset, Quantity: l.Quantity, Price: M(l.Price, quote), Total: M(l.Total, quote)}, nil
}
