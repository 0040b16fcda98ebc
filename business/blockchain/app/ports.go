// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/mvaldes/flashcycle/business/blockchain/domain"
)

// BlockSubscriber defines the interface for new-block notification.
// Implementations push over WebSocket and fall back to interval polling
// when the stream fails; consumers cannot tell the difference.
type BlockSubscriber interface {
	// Subscribe starts listening for new blocks and returns a channel of blocks.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)

	// LatestBlock retrieves the most recent block.
	LatestBlock(ctx context.Context) (*domain.Block, error)

	// State returns the current connection state.
	State() domain.ConnectionState
}

// FeeOracle defines the interface for network fee information.
type FeeOracle interface {
	// FeeData retrieves the current gas price and base fee.
	FeeData(ctx context.Context) (*domain.FeeData, error)

	// EstimateGas estimates the gas needed for a call to the given contract.
	EstimateGas(ctx context.Context, data []byte, to string) (uint64, error)
}
