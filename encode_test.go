package portfolio

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// richPortfolio exercises every record kind.
func richPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	p := newTestPortfolio(t)
	depositThenOrder(t, p)
	mustAdd(t, p, NewDeposit(at("2025-01-03 10:00"), "cold", L("Y", Q(3)).At(dec("10.125"))).WithFee(L("USD", Q(0.5))).WithClass("gift"))
	mustAdd(t, p, NewInternal(at("2025-01-04 10:00"), "main", "cold", L("X", Q(1))).WithFee(L("USD", Q(1))))
	mustAdd(t, p, NewOrder(at("2025-01-05 10:00"), "main", L("X", Q(1)).At(dec("90")), L("USD", Q(90))))
	return p
}

func assertSameState(t *testing.T, want, got State) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Quote, got.Quote)
	assert.Equal(t, want.Wallets, got.Wallets)

	require.Len(t, got.Assets, len(want.Assets))
	for i := range want.Assets {
		assert.Equal(t, want.Assets[i].Name, got.Assets[i].Name)
		assert.True(t, want.Assets[i].Price.Equal(got.Assets[i].Price))
	}

	require.Len(t, got.Transactions, len(want.Transactions))
	for i, w := range want.Transactions {
		g := got.Transactions[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Type, g.Type)
		assert.Equal(t, w.At, g.At)
		assert.Equal(t, w.Class, g.Class)
		assert.Equal(t, w.Origin, g.Origin)
		assert.Equal(t, w.Destination, g.Destination)
		for _, legs := range [][2]*Leg{{w.Fee, g.Fee}, {w.Sent, g.Sent}, {w.Received, g.Received}} {
			if legs[0] == nil {
				assert.Nil(t, legs[1])
				continue
			}
			require.NotNil(t, legs[1])
			assert.Equal(t, legs[0].Asset, legs[1].Asset)
			assert.True(t, legs[0].Quantity.Equal(legs[1].Quantity))
			assert.True(t, legs[0].Price.Equal(legs[1].Price))
			assert.True(t, legs[0].Total.Equal(legs[1].Total))
		}
		wr, wok := want.Realized[w.ID]
		gr, gok := got.Realized[w.ID]
		assert.Equal(t, wok, gok)
		assert.True(t, wr.Decimal().Equal(gr.Decimal()))
	}

	for _, name := range want.Wallets {
		require.Len(t, got.Positions[name], len(want.Positions[name]))
		for i, pos := range want.Positions[name] {
			assert.True(t, samePosition(pos, got.Positions[name][i]))
		}
	}
	require.Len(t, got.Fees, len(want.Fees))
	for i := range want.Fees {
		assert.True(t, sameFee(want.Fees[i], got.Fees[i]))
	}
	require.Len(t, got.Gains, len(want.Gains))
	for i := range want.Gains {
		assert.True(t, sameGain(want.Gains[i], got.Gains[i]))
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	p := richPortfolio(t)
	data, err := Marshal(p)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assertSameState(t, p.State(), got.State())

	// a second encoding is byte identical
	again, err := Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestMarshalFormat(t *testing.T) {
	p := richPortfolio(t)
	data, err := Marshal(p)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, `{"record":"portfolio","name":"test","quote":"USD","withdrawBasis":"open-price","internalTransfers":"ignore"}`, lines[0])
	assert.Contains(t, lines, `{"record":"wallet","name":"cold"}`)
	assert.True(t, slices.ContainsFunc(lines, func(l string) bool {
		return strings.HasPrefix(l, `{"record":"tx",`) &&
			strings.Contains(l, `"class":"gift"`) &&
			strings.Contains(l, `"feeAsset":"USD","feeQuantity":0.5,"feePrice":1,"feeTotal":0.5`) &&
			strings.Contains(l, `"receivedPrice":10.125`)
	}), "fee and received legs are flattened in the tx record")
}

func TestUnmarshalDetectsCorruption(t *testing.T) {
	p := richPortfolio(t)
	data, err := Marshal(p)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func(lines []string) []string
	}{
		{"tampered position", func(lines []string) []string {
			return replaceIn(lines, `"record":"position"`, `"costBasis":500`, `"costBasis":501`)
		}},
		{"tampered gain", func(lines []string) []string {
			return replaceIn(lines, `"record":"gain"`, `"amount":200`, `"amount":250`)
		}},
		{"duplicated fee", func(lines []string) []string {
			for _, l := range lines {
				if strings.Contains(l, `"record":"fee"`) {
					return append(lines, l)
				}
			}
			return lines
		}},
		{"dropped gain", func(lines []string) []string {
			return slices.DeleteFunc(lines, func(l string) bool { return strings.Contains(l, `"record":"gain"`) })
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			mutated := strings.Join(tc.mutate(lines), "\n")
			require.NotEqual(t, strings.TrimSpace(string(data)), mutated, "the mutation must apply")
			_, err := Unmarshal([]byte(mutated))
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

// replaceIn replaces old with new in the first line containing marker.
func replaceIn(lines []string, marker, old, new string) []string {
	for i, l := range lines {
		if strings.Contains(l, marker) && strings.Contains(l, old) {
			lines[i] = strings.Replace(l, old, new, 1)
			return lines
		}
	}
	return lines
}

func TestDecodeStateErrors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"no header", `{"record":"wallet","name":"main"}`},
		{"empty", ``},
		{"unknown record", "{\"record\":\"portfolio\",\"name\":\"p\",\"quote\":\"USD\"}\n{\"record\":\"nope\"}"},
		{"bad json", "{\"record\":\"portfolio\",\"name\":\"p\",\"quote\":\"USD\"}\n{"},
		{"bad tx type", "{\"record\":\"portfolio\",\"name\":\"p\",\"quote\":\"USD\"}\n{\"record\":\"tx\",\"type\":\"gift\",\"at\":\"2025-01-01 00:00\"}"},
		{"incomplete leg", "{\"record\":\"portfolio\",\"name\":\"p\",\"quote\":\"USD\"}\n{\"record\":\"tx\",\"type\":\"deposit\",\"at\":\"2025-01-01 00:00\",\"receivedAsset\":\"X\"}"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeState(strings.NewReader(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestRestoreRefusesUnknownWallet(t *testing.T) {
	p := richPortfolio(t)
	s := p.State()
	s.Wallets = []string{"main"}
	_, err := Restore(s)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestEncodeEmptyPortfolio(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeState(&buf, New("empty", WithQuote("EUR")).State()))
	got, err := Unmarshal(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Quote())
	assert.Equal(t, "empty", got.Name())
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "sub", "portfolio.jsonl"))

	_, err := store.Load(ctx)
	assert.Error(t, err)

	p := richPortfolio(t)
	require.NoError(t, store.Save(ctx, p))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameState(t, p.State(), got.State())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.Save(canceled, p), context.Canceled)
}

func TestUnmarshalRefusesMalformedTransactions(t *testing.T) {
	const head = `{"record":"portfolio","name":"p","quote":"USD"}` + "\n" + `{"record":"wallet","name":"main"}` + "\n"
	const id = `"id":"6f1c2b9e-8d4a-4c3e-9b1a-2f0e5d7c8a91"`
	testCases := []struct {
		name    string
		tx      string
		wantErr error
	}{
		{"withdraw without legs",
			`{"record":"tx",` + id + `,"type":"withdraw","at":"2025-01-01 10:00","origin":"main"}`, ErrMissingLeg},
		{"order without a sent leg",
			`{"record":"tx",` + id + `,"type":"order","at":"2025-01-01 10:00","origin":"main","receivedAsset":"USD","receivedQuantity":1,"receivedPrice":1,"receivedTotal":1}`, ErrMissingLeg},
		{"deposit without legs",
			`{"record":"tx",` + id + `,"type":"deposit","at":"2025-01-01 10:00","destination":"main"}`, ErrMissingLeg},
		{"withdraw with a destination",
			`{"record":"tx",` + id + `,"type":"withdraw","at":"2025-01-01 10:00","origin":"main","destination":"main","sentAsset":"USD","sentQuantity":1,"sentPrice":1,"sentTotal":1}`, ErrUnexpectedWallet},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = Unmarshal([]byte(head + tc.tx + "\n")) })
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestUnmarshalUnderAnotherWithdrawBasis(t *testing.T) {
	p := newTestPortfolio(t)
	mustAdd(t, p, NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(10)).At(dec("100"))))
	mustAdd(t, p, NewDeposit(at("2025-01-02 10:00"), "main", L("X", Q(10)).At(dec("200"))))
	mustAdd(t, p, NewWithdraw(at("2025-01-03 10:00"), "main", L("X", Q(5))))
	assertDecimal(t, dec("2500"), position(t, p, "main", "X").CostBasis.Decimal())

	data, err := Marshal(p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data),
		`{"record":"portfolio","name":"test","quote":"USD","withdrawBasis":"open-price","internalTransfers":"ignore"}`))

	kept, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, OpenPrice, kept.State().WithdrawBasis)
	assertDecimal(t, dec("2500"), position(t, kept, "main", "X").CostBasis.Decimal())

	// the ledger is replayed under the requested basis
	average, err := Unmarshal(data, WithWithdrawBasis(AverageCost))
	require.NoError(t, err)
	assert.Equal(t, AverageCost, average.State().WithdrawBasis)
	assertDecimal(t, dec("2250"), position(t, average, "main", "X").CostBasis.Decimal())

	again, err := Marshal(average)
	require.NoError(t, err)
	reloaded, err := Unmarshal(again, WithWithdrawBasis(AverageCost))
	require.NoError(t, err)
	assertDecimal(t, dec("2250"), position(t, reloaded, "main", "X").CostBasis.Decimal())
}

func TestUnmarshalUnderAnotherTransferPolicy(t *testing.T) {
	p := newTestPortfolio(t)
	mustAdd(t, p, NewDeposit(at("2025-01-01 10:00"), "main", L("X", Q(10))))
	mustAdd(t, p, NewInternal(at("2025-01-02 10:00"), "main", "cold", L("X", Q(4))))
	data, err := Marshal(p)
	require.NoError(t, err)

	moved, err := Unmarshal(data, WithTransferPolicy(TransferMove))
	require.NoError(t, err)
	assert.Equal(t, TransferMove, moved.State().Transfers)
	assertDecimal(t, dec("4"), position(t, moved, "cold", "X").Quantity.Decimal())
	assertDecimal(t, dec("6"), position(t, moved, "main", "X").Quantity.Decimal())
}

func TestUnmarshalWithoutStoredPolicies(t *testing.T) {
	data := `{"record":"portfolio","name":"p","quote":"USD"}` + "\n"
	s, err := DecodeState(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, OpenPrice, s.WithdrawBasis)
	assert.Equal(t, TransferIgnore, s.Transfers)

	_, err = DecodeState(strings.NewReader(`{"record":"portfolio","name":"p","quote":"USD","withdrawBasis":"fifo"}`))
	assert.Error(t, err)
}
