// Package app contains strategy building and execution coordination.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/mvaldes/flashcycle/business/execution/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
)

// PriceOracle converts token amounts to USD for profit gating.
type PriceOracle interface {
	// TokenPriceUSD returns the USD price of one whole token.
	TokenPriceUSD(ctx context.Context, a *asset.Asset) (decimal.Decimal, error)
}

// ProtocolDispatcher encodes a strategy into flash-loan calldata for
// the configured protocol and decodes its execution events.
type ProtocolDispatcher interface {
	// Encode returns the target contract and calldata.
	Encode(strategy *domain.Strategy) (to common.Address, data []byte, err error)

	// RealizedProfit extracts the realized profit from the execution
	// event in a successful receipt, false when the event is absent.
	RealizedProfit(receipt *types.Receipt) (*big.Int, bool)
}

// TxSubmitter signs and broadcasts transactions and waits for
// receipts.
type TxSubmitter interface {
	// Submit signs and broadcasts a transaction to the target.
	Submit(ctx context.Context, to common.Address, data []byte, gasLimit uint64, gasPrice *big.Int) (common.Hash, error)

	// WaitReceipt blocks until the transaction is mined or ctx ends.
	WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}
