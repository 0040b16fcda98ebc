// Package discovery implements the cycle discovery bounded context.
package discovery

import (
	"context"

	liquidityDI "github.com/mvaldes/flashcycle/business/liquidity/di"
	marketDI "github.com/mvaldes/flashcycle/business/market/di"

	"github.com/mvaldes/flashcycle/business/discovery/app"
	discoveryDI "github.com/mvaldes/flashcycle/business/discovery/di"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/di"
	"github.com/mvaldes/flashcycle/internal/logger"
	"github.com/mvaldes/flashcycle/internal/monolith"
)

// Module implements the discovery bounded context.
type Module struct{}

// RegisterServices registers all discovery services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, discoveryDI.CycleGenerator, func(sr di.ServiceRegistry) *app.CycleGenerator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		genCfg := app.DefaultGeneratorConfig()
		if len(cfg.Detection.CycleLengths) > 0 {
			genCfg.CycleLengths = cfg.Detection.CycleLengths
		}
		if cfg.Detection.ExplorationRatio > 0 {
			genCfg.ExplorationRatio = cfg.Detection.ExplorationRatio
		}
		if cfg.Detection.Seed != 0 {
			genCfg.Seed = cfg.Detection.Seed
		}
		if cfg.Detection.CycleCacheTTL > 0 {
			genCfg.CacheTTL = cfg.Detection.CycleCacheTTL
		}

		agg := liquidityDI.GetQuoteAggregator(sr)
		catalog := marketDI.GetTokenCatalog(sr)
		return app.NewCycleGenerator(genCfg, agg, catalog, log)
	})

	di.RegisterToken(c, discoveryDI.ProfitEvaluator, func(sr di.ServiceRegistry) *app.ProfitEvaluator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		evalCfg := app.DefaultEvaluatorConfig()
		if len(cfg.Detection.TestAmounts) > 0 {
			evalCfg.TestAmounts = cfg.Detection.TestAmounts
		}
		if cfg.Detection.MinProfitBps > 0 {
			evalCfg.MinProfitBps = cfg.Detection.MinProfitBps
		}
		if cfg.Detection.MaxProfitable > 0 {
			evalCfg.MaxProfitable = cfg.Detection.MaxProfitable
		}
		if cfg.Detection.BatchSize > 0 {
			evalCfg.BatchSize = cfg.Detection.BatchSize
		}

		agg := liquidityDI.GetQuoteAggregator(sr)
		return app.NewProfitEvaluator(evalCfg, agg, log)
	})

	return nil
}

// Startup initializes the discovery module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "discovery module started")
	return nil
}
