// Package arbitrage implements the detection loop bounded context.
package arbitrage

import (
	"context"

	blockchainDI "github.com/mvaldes/flashcycle/business/blockchain/di"
	discoveryDI "github.com/mvaldes/flashcycle/business/discovery/di"
	executionDI "github.com/mvaldes/flashcycle/business/execution/di"
	liquidityDI "github.com/mvaldes/flashcycle/business/liquidity/di"
	marketDI "github.com/mvaldes/flashcycle/business/market/di"

	"github.com/mvaldes/flashcycle/business/arbitrage/app"
	arbitrageDI "github.com/mvaldes/flashcycle/business/arbitrage/di"
	executionApp "github.com/mvaldes/flashcycle/business/execution/app"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/di"
	"github.com/mvaldes/flashcycle/internal/logger"
	"github.com/mvaldes/flashcycle/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.ScoringFeedback, func(sr di.ServiceRegistry) *app.ScoringFeedback {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewScoringFeedback(
			liquidityDI.GetScoreBook(sr),
			marketDI.GetTokenCatalog(sr),
			executionDI.GetPriceOracle(sr),
			cfg.Execution.ReferenceProfitUSD,
			log,
		)
	})

	di.RegisterToken(c, arbitrageDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var coordinator *executionApp.ExecutionCoordinator
		if cfg.Execution.Enabled {
			coordinator = executionDI.GetExecutionCoordinator(sr)
		}

		detector, err := app.NewDetector(
			app.DetectorConfig{
				Cooldown:         cfg.Detection.Cooldown,
				ExecutionEnabled: cfg.Execution.Enabled,
			},
			blockchainDI.GetBlockchainService(sr),
			marketDI.GetTokenCatalog(sr),
			discoveryDI.GetCycleGenerator(sr),
			discoveryDI.GetProfitEvaluator(sr),
			executionDI.GetStrategyBuilder(sr),
			coordinator,
			arbitrageDI.GetScoringFeedback(sr),
			log,
		)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}
		return detector
	})

	return nil
}

// Startup initializes the arbitrage module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "arbitrage module started")
	return nil
}
