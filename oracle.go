package portfolio

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// PriceOracle supplies the unit price of an asset, in the quote currency,
// for transaction legs built without an explicit price.
type PriceOracle interface {
	PriceOf(asset string) (decimal.Decimal, error)
}

// OracleFunc adapts a function to the PriceOracle interface.
type OracleFunc func(asset string) (decimal.Decimal, error)

func (f OracleFunc) PriceOf(asset string) (decimal.Decimal, error) { return f(asset) }

// RegistryOracle prices assets at their current reference price.
type RegistryOracle struct {
	assets *Assets
}

// NewRegistryOracle returns an oracle reading reference prices from assets.
func NewRegistryOracle(assets *Assets) *RegistryOracle {
	return &RegistryOracle{assets: assets}
}

func (o *RegistryOracle) PriceOf(asset string) (decimal.Decimal, error) {
	a, ok := o.assets.Get(asset)
	if !ok {
		return decimal.Zero, fmt.Errorf("%q: %w", asset, ErrAssetNotFound)
	}
	return a.Price, nil
}

// CachedOracle remembers the prices returned by another oracle for a while.
type CachedOracle struct {
	next  PriceOracle
	cache *cache.Cache
}

// NewCachedOracle caches the prices of next for ttl.
func NewCachedOracle(next PriceOracle, ttl time.Duration) *CachedOracle {
	return &CachedOracle{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (o *CachedOracle) PriceOf(asset string) (decimal.Decimal, error) {
	if v, found := o.cache.Get(asset); found {
		return v.(decimal.Decimal), nil
	}
	price, err := o.next.PriceOf(asset)
	if err != nil {
		return decimal.Zero, err
	}
	o.cache.Set(asset, price, cache.DefaultExpiration)
	return price, nil
}

// Forget drops every cached price.
func (o *CachedOracle) Forget() { o.cache.Flush() }
