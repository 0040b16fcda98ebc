// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/mvaldes/flashcycle/business/blockchain/domain"
)

// BlockchainService coordinates chain interactions for the rest of the app.
type BlockchainService struct {
	subscriber BlockSubscriber
	feeOracle  FeeOracle
}

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(subscriber BlockSubscriber, feeOracle FeeOracle) *BlockchainService {
	return &BlockchainService{
		subscriber: subscriber,
		feeOracle:  feeOracle,
	}
}

// SubscribeBlocks starts the block subscription and returns the channel.
func (s *BlockchainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.subscriber.Subscribe(ctx)
}

// FeeData retrieves the current network fee information.
func (s *BlockchainService) FeeData(ctx context.Context) (*domain.FeeData, error) {
	return s.feeOracle.FeeData(ctx)
}

// ConnectionState returns the current connection state.
func (s *BlockchainService) ConnectionState() domain.ConnectionState {
	return s.subscriber.State()
}
