// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/mvaldes/flashcycle/business/market/app"
	"github.com/mvaldes/flashcycle/internal/di"
)

// Public service tokens - exposed to other modules
var (
	TokenCatalog = di.NewToken[*app.TokenCatalog]("market.TokenCatalog")
)

// Private dependency tokens - internal to market module
var (
	MetadataLoader = di.NewToken[app.MetadataLoader]("market:metadataLoader")
)

// Helper functions for type-safe access
func GetTokenCatalog(c di.ServiceRegistry) *app.TokenCatalog {
	return di.GetToken(c, TokenCatalog)
}

func GetMetadataLoader(c di.ServiceRegistry) app.MetadataLoader {
	return di.GetToken(c, MetadataLoader)
}
