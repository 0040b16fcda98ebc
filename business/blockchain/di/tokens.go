// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/mvaldes/flashcycle/business/blockchain/app"
	"github.com/mvaldes/flashcycle/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
)

// Private dependency tokens - internal to blockchain module
var (
	BlockSubscriber = di.NewToken[app.BlockSubscriber]("blockchain:blockSubscriber")
	FeeOracle       = di.NewToken[app.FeeOracle]("blockchain:feeOracle")
)

// Helper functions for type-safe access
func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}

func GetBlockSubscriber(c di.ServiceRegistry) app.BlockSubscriber {
	return di.GetToken(c, BlockSubscriber)
}

func GetFeeOracle(c di.ServiceRegistry) app.FeeOracle {
	return di.GetToken(c, FeeOracle)
}
