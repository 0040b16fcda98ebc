// Package oracle provides USD price sources for profit gating.
package oracle

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mvaldes/flashcycle/internal/apperror"
	"github.com/mvaldes/flashcycle/internal/asset"
)

// StaticOracle serves USD prices from configuration. Stablecoins
// without a configured price fall back to 1 USD; anything else
// unknown is a price feed error so profit gating stays conservative.
type StaticOracle struct {
	prices map[string]decimal.Decimal
}

// NewStaticOracle creates an oracle from address-keyed USD prices.
func NewStaticOracle(prices map[string]float64) *StaticOracle {
	converted := make(map[string]decimal.Decimal, len(prices))
	for addr, p := range prices {
		converted[strings.ToLower(addr)] = decimal.NewFromFloat(p)
	}
	return &StaticOracle{prices: converted}
}

// TokenPriceUSD returns the USD price of one whole token.
func (o *StaticOracle) TokenPriceUSD(_ context.Context, a *asset.Asset) (decimal.Decimal, error) {
	if p, ok := o.prices[strings.ToLower(a.Address().Hex())]; ok {
		return p, nil
	}
	if a.IsStablecoin() {
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, apperror.New(apperror.CodePriceFeedError,
		apperror.WithContext("no usd price for "+a.Symbol()))
}
