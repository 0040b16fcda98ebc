// Package app contains the quote aggregation service for the liquidity context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mvaldes/flashcycle/business/liquidity/domain"
)

// DEXAdapter is a single venue capable of quoting swaps.
type DEXAdapter interface {
	// ID returns the venue identifier.
	ID() domain.DEXID

	// Quote returns the output amount for swapping amountIn of token
	// in for token out. Returns an error when the venue has no pool
	// for the pair or the call fails.
	Quote(ctx context.Context, in, out common.Address, amountIn *big.Int) (*domain.Quote, error)
}
