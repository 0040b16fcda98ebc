// Package market implements the token universe bounded context.
package market

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mvaldes/flashcycle/business/market/app"
	marketDI "github.com/mvaldes/flashcycle/business/market/di"
	"github.com/mvaldes/flashcycle/business/market/infra/ethereum"
	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/di"
	"github.com/mvaldes/flashcycle/internal/logger"
	"github.com/mvaldes/flashcycle/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.MetadataLoader, func(sr di.ServiceRegistry) app.MetadataLoader {
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		loader, err := ethereum.NewERC20Loader(client, log)
		if err != nil {
			panic("failed to create erc20 loader: " + err.Error())
		}
		return loader
	})

	di.RegisterToken(c, marketDI.TokenCatalog, func(sr di.ServiceRegistry) *app.TokenCatalog {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		loader := marketDI.GetMetadataLoader(sr)

		return app.NewTokenCatalog(cfg.Chain.ChainID, loader, registry, log)
	})

	return nil
}

// Startup loads the token catalog from chain metadata.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	catalog := marketDI.GetTokenCatalog(mono.Services())
	if err := catalog.Load(ctx, cfg.Tokens); err != nil {
		return err
	}

	log.Info(ctx, "market module started", "tokens", catalog.Count())
	return nil
}
