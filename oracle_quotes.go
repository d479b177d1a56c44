package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// DefaultQuotePath locates an asset price in a quotes document like
//
//	{"prices": {"BTC": 64000.5, "ETH": "3100.25"}}
const DefaultQuotePath = `$.prices["{asset}"]`

// QuoteFileOracle reads prices from a local JSON document. The price of an
// asset is extracted with a JSONPath expression in which "{asset}" is
// replaced by the asset name.
type QuoteFileOracle struct {
	file string
	path string
}

// NewQuoteFileOracle returns an oracle reading file with the JSONPath template path.
// An empty path selects DefaultQuotePath.
func NewQuoteFileOracle(file, path string) *QuoteFileOracle {
	if path == "" {
		path = DefaultQuotePath
	}
	return &QuoteFileOracle{file: file, path: path}
}

// PriceOf reads the quotes file and extracts the price of asset.
// The file is read at each call so that it can be updated while running,
// wrap the oracle with NewCachedOracle to avoid it.
func (o *QuoteFileOracle) PriceOf(asset string) (decimal.Decimal, error) {
	data, err := os.ReadFile(o.file)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot read quotes: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return decimal.Zero, fmt.Errorf("invalid quotes file %q: %w", o.file, err)
	}
	path := strings.ReplaceAll(o.path, "{asset}", asset)
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("no quote for %q at %q: %w", asset, path, err)
	}
	// jsonpath returns either a single answer or a list of answers: keep the first one if any.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return decimal.Zero, fmt.Errorf("no quote for %q at %q", asset, path)
		}
		jval = jlist[0]
	}

	var price decimal.Decimal
	switch v := jval.(type) {
	case json.Number:
		price, err = decimal.NewFromString(v.String())
	case float64:
		price = decimal.NewFromFloat(v)
	case string:
		// some quote sources serialize numbers as strings
		price, err = decimal.NewFromString(strings.TrimSpace(v))
	default:
		err = fmt.Errorf("not a number: %v", jval)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quote for %q at %q: %w", asset, path, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("quote for %q: %w", asset, ErrInvalidPrice)
	}
	return price, nil
}
