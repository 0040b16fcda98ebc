// Package execution implements the strategy execution bounded context.
package execution

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	blockchainDI "github.com/mvaldes/flashcycle/business/blockchain/di"
	liquidityDI "github.com/mvaldes/flashcycle/business/liquidity/di"

	"github.com/mvaldes/flashcycle/business/execution/app"
	executionDI "github.com/mvaldes/flashcycle/business/execution/di"
	"github.com/mvaldes/flashcycle/business/execution/infra/ethereum"
	"github.com/mvaldes/flashcycle/business/execution/infra/oracle"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/di"
	"github.com/mvaldes/flashcycle/internal/logger"
	"github.com/mvaldes/flashcycle/internal/monolith"
)

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, executionDI.PriceOracle, func(sr di.ServiceRegistry) app.PriceOracle {
		cfg := sr.Get("config").(*config.Config)
		return oracle.NewStaticOracle(cfg.Oracle.StaticPrices)
	})

	di.RegisterToken(c, executionDI.Dispatcher, func(sr di.ServiceRegistry) app.ProtocolDispatcher {
		cfg := sr.Get("config").(*config.Config)

		d, err := ethereum.NewDispatcher(
			cfg.Execution.Protocol,
			common.HexToAddress(cfg.Execution.ProviderAddress),
			common.HexToAddress(cfg.Execution.ReceiverAddress),
		)
		if err != nil {
			panic("failed to create dispatcher: " + err.Error())
		}
		return d
	})

	di.RegisterToken(c, executionDI.Submitter, func(sr di.ServiceRegistry) app.TxSubmitter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		s, err := ethereum.NewSubmitter(client, cfg.Execution.PrivateKey, cfg.Chain.ChainID, log)
		if err != nil {
			panic("failed to create submitter: " + err.Error())
		}
		return s
	})

	di.RegisterToken(c, executionDI.StrategyBuilder, func(sr di.ServiceRegistry) *app.StrategyBuilder {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		builderCfg := app.BuilderConfig{
			SlippageBps:  cfg.Execution.SlippageBps,
			MinProfitUSD: decimal.NewFromFloat(cfg.Execution.MinProfitUSD),
		}
		agg := liquidityDI.GetQuoteAggregator(sr)
		return app.NewStrategyBuilder(builderCfg, executionDI.GetPriceOracle(sr), agg, log)
	})

	di.RegisterToken(c, executionDI.ExecutionCoordinator, func(sr di.ServiceRegistry) *app.ExecutionCoordinator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		coordCfg := app.DefaultCoordinatorConfig()
		if cfg.Execution.GasBase > 0 {
			coordCfg.GasBase = cfg.Execution.GasBase
		}
		if cfg.Execution.GasPerHop > 0 {
			coordCfg.GasPerHop = cfg.Execution.GasPerHop
		}
		if cfg.Execution.GasHighGwei > cfg.Execution.GasLowGwei {
			coordCfg.GasLowGwei = cfg.Execution.GasLowGwei
			coordCfg.GasHighGwei = cfg.Execution.GasHighGwei
		}
		if cfg.Execution.MaxGasPriceGwei > 0 {
			coordCfg.MaxGasPriceGwei = cfg.Execution.MaxGasPriceGwei
		}
		if cfg.Execution.CongestionSurcharge > 0 {
			coordCfg.CongestionSurcharge = cfg.Execution.CongestionSurcharge
		}
		if cfg.Execution.ConfirmationTimeout > 0 {
			coordCfg.ConfirmationTimeout = cfg.Execution.ConfirmationTimeout
		}

		feeOracle := blockchainDI.GetFeeOracle(sr)
		coordinator, err := app.NewExecutionCoordinator(
			coordCfg, feeOracle,
			executionDI.GetDispatcher(sr), executionDI.GetSubmitter(sr), log,
		)
		if err != nil {
			panic("failed to create execution coordinator: " + err.Error())
		}
		return coordinator
	})

	return nil
}

// Startup initializes the execution module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	if cfg.Execution.Enabled {
		// Resolve eagerly so key or protocol misconfiguration
		// surfaces at boot instead of mid-opportunity.
		executionDI.GetExecutionCoordinator(mono.Services())
	}

	log.Info(ctx, "execution module started", "enabled", cfg.Execution.Enabled)
	return nil
}
