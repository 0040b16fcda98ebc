// Package app contains cycle generation and evaluation for the discovery context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
)

// LiquidityView exposes pair liquidity knowledge to cycle generation.
type LiquidityView interface {
	// PairLiquidityScore returns the pair's score in [0.1, 1.0].
	PairLiquidityScore(a, b common.Address) float64

	// HasLiquidity reports whether a pair is worth routing through.
	HasLiquidity(a, b common.Address) bool
}

// WeightView exposes token priority weights to cycle generation.
type WeightView interface {
	// Weight returns the token's priority weight, 1.0 when unknown.
	Weight(id asset.AssetID) float64
}

// QuoteProvider supplies per-hop quotes to cycle evaluation.
type QuoteProvider interface {
	// BestQuote returns the best venue quote for one hop.
	BestQuote(ctx context.Context, in, out common.Address, amountIn *big.Int) (*liquidity.Quote, error)
}
