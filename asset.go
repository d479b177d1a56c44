package portfolio

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset is a tradable instrument identified by its name.
//
// Price is the reference price in the quote currency. It is read when a
// transaction is built and is never versioned: changing it does not alter
// recorded transactions.
type Asset struct {
	Name  string
	Price decimal.Decimal
}

// Assets is the registry of known assets. It always contains the quote asset.
type Assets struct {
	quote  string
	assets map[string]Asset
}

// NewAssets creates a registry holding only the quote asset at price 1.
func NewAssets(quote string) *Assets {
	r := &Assets{quote: quote, assets: make(map[string]Asset)}
	r.assets[quote] = Asset{Name: quote, Price: decimal.NewFromInt(1)}
	return r
}

// Quote returns the name of the quote asset.
func (r *Assets) Quote() string { return r.quote }

// Get returns the asset registered under name.
func (r *Assets) Get(name string) (Asset, bool) {
	a, ok := r.assets[name]
	return a, ok
}

// Add registers a new asset.
func (r *Assets) Add(name string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("asset name is missing")
	}
	if _, exists := r.assets[name]; exists {
		return fmt.Errorf("%q: %w", name, ErrDuplicateAsset)
	}
	if price.IsNegative() {
		return fmt.Errorf("%q: %w", name, ErrInvalidPrice)
	}
	r.assets[name] = Asset{Name: name, Price: price}
	return nil
}

// Remove unregisters an asset. The quote asset cannot be removed.
func (r *Assets) Remove(name string) error {
	if name == r.quote {
		return fmt.Errorf("cannot remove %q: %w", name, ErrQuoteAsset)
	}
	if _, exists := r.assets[name]; !exists {
		return fmt.Errorf("%q: %w", name, ErrAssetNotFound)
	}
	delete(r.assets, name)
	return nil
}

// SetPrice updates the reference price of an asset. The quote asset price is fixed.
func (r *Assets) SetPrice(name string, price decimal.Decimal) error {
	if name == r.quote {
		return fmt.Errorf("cannot change the price of %q: %w", name, ErrQuoteAsset)
	}
	a, exists := r.assets[name]
	if !exists {
		return fmt.Errorf("%q: %w", name, ErrAssetNotFound)
	}
	if price.IsNegative() {
		return fmt.Errorf("%q: %w", name, ErrInvalidPrice)
	}
	a.Price = price
	r.assets[name] = a
	return nil
}

// All iterates over assets sorted by name.
func (r *Assets) All() iter.Seq[Asset] {
	return func(yield func(Asset) bool) {
		names := slices.Collect(maps.Keys(r.assets))
		slices.Sort(names)
		for _, name := range names {
			if !yield(r.assets[name]) {
				return
			}
		}
	}
}

// Len returns the number of registered assets, the quote asset included.
func (r *Assets) Len() int { return len(r.assets) }
