// Package liquidity implements the venue quoting bounded context.
package liquidity

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	marketDI "github.com/mvaldes/flashcycle/business/market/di"

	"github.com/mvaldes/flashcycle/business/liquidity/app"
	liquidityDI "github.com/mvaldes/flashcycle/business/liquidity/di"
	"github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/business/liquidity/infra/dex"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/di"
	"github.com/mvaldes/flashcycle/internal/logger"
	"github.com/mvaldes/flashcycle/internal/monolith"
)

// Module implements the liquidity bounded context.
type Module struct{}

// RegisterServices registers all liquidity services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, liquidityDI.ScoreBook, func(sr di.ServiceRegistry) *domain.ScoreBook {
		return domain.NewScoreBook()
	})

	di.RegisterToken(c, liquidityDI.Adapters, func(sr di.ServiceRegistry) []app.DEXAdapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		adapters := make([]app.DEXAdapter, 0, len(cfg.DEXes))
		for _, d := range cfg.DEXes {
			id := domain.DEXID(d.ID)
			addr := common.HexToAddress(d.Address)

			switch d.Kind {
			case config.DEXKindV2Router:
				adapters = append(adapters, dex.NewV2RouterAdapter(id, addr, client, log))
			case config.DEXKindV3Quoter:
				adapters = append(adapters, dex.NewV3QuoterAdapter(id, addr, client, log))
			case config.DEXKindStableswap:
				adapters = append(adapters, dex.NewStableSwapAdapter(id, addr, client, log))
			default:
				panic("unknown dex kind: " + d.Kind)
			}
		}
		return adapters
	})

	di.RegisterToken(c, liquidityDI.QuoteAggregator, func(sr di.ServiceRegistry) *app.QuoteAggregator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		aggCfg := app.DefaultAggregatorConfig()
		if cfg.Quotes.CacheTTL > 0 {
			aggCfg.CacheTTL = cfg.Quotes.CacheTTL
		}
		if cfg.Quotes.RatePerMinute > 0 {
			aggCfg.RatePerMinute = cfg.Quotes.RatePerMinute
		}
		if cfg.Detection.Seed != 0 {
			aggCfg.Seed = cfg.Detection.Seed
		}

		agg, err := app.NewQuoteAggregator(aggCfg, liquidityDI.GetAdapters(sr), liquidityDI.GetScoreBook(sr), log)
		if err != nil {
			panic("failed to create quote aggregator: " + err.Error())
		}
		return agg
	})

	return nil
}

// Startup optionally primes quote caches for every catalog pair.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	agg := liquidityDI.GetQuoteAggregator(mono.Services())

	if cfg.Quotes.PrimePairs {
		catalog := marketDI.GetTokenCatalog(mono.Services())
		tokens := catalog.Tokens()

		probeUnits := cfg.Quotes.ProbeUnits
		if probeUnits <= 0 {
			probeUnits = 1
		}

		var targets []app.PrimeTarget
		for i, in := range tokens {
			amount := new(big.Int).Mul(
				big.NewInt(probeUnits),
				new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(in.Decimals())), nil),
			)
			for j, out := range tokens {
				if i == j {
					continue
				}
				targets = append(targets, app.PrimeTarget{
					In: in.Address(), Out: out.Address(), Amount: amount,
				})
			}
		}

		log.Info(ctx, "priming venue quotes", "hops", len(targets))
		agg.PrimePairs(ctx, targets)
	}

	log.Info(ctx, "liquidity module started", "venues", len(cfg.DEXes))
	return nil
}
