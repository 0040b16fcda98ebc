// Package blockchain implements the chain bounded context.
package blockchain

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mvaldes/flashcycle/business/blockchain/app"
	blockchainDI "github.com/mvaldes/flashcycle/business/blockchain/di"
	"github.com/mvaldes/flashcycle/business/blockchain/infra/ethereum"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/di"
	"github.com/mvaldes/flashcycle/internal/logger"
	"github.com/mvaldes/flashcycle/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register BlockSubscriber (private - internal dependency)
	di.RegisterToken(c, blockchainDI.BlockSubscriber, func(sr di.ServiceRegistry) app.BlockSubscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Chain.WebSocketURL, cfg.Chain.HTTPURL)
		if cfg.Chain.PollInterval > 0 {
			subCfg.PollInterval = cfg.Chain.PollInterval
		}
		if cfg.Chain.ReconnectDelay > 0 {
			subCfg.ReconnectDelay = cfg.Chain.ReconnectDelay
		}

		sub, err := ethereum.NewSubscriber(subCfg, log)
		if err != nil {
			panic("failed to create subscriber: " + err.Error())
		}
		return sub
	})

	// Register FeeOracle (private - internal dependency)
	di.RegisterToken(c, blockchainDI.FeeOracle, func(sr di.ServiceRegistry) app.FeeOracle {
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		return ethereum.NewEthFeeOracle(ethereum.DefaultFeeOracleConfig(), client, log)
	})

	// Register BlockchainService (public - exposed to other modules)
	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		sub := blockchainDI.GetBlockSubscriber(sr)
		oracle := blockchainDI.GetFeeOracle(sr)
		return app.NewBlockchainService(sub, oracle)
	})

	return nil
}

// Startup initializes the blockchain module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Instantiate eagerly so connection problems surface at boot.
	blockchainDI.GetBlockSubscriber(mono.Services())
	blockchainDI.GetFeeOracle(mono.Services())

	log.Info(ctx, "blockchain module started")
	return nil
}
