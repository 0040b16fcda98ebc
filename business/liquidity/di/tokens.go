// Package di contains dependency injection tokens for the liquidity context.
package di

import (
	"github.com/mvaldes/flashcycle/business/liquidity/app"
	"github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteAggregator = di.NewToken[*app.QuoteAggregator]("liquidity.QuoteAggregator")
	ScoreBook       = di.NewToken[*domain.ScoreBook]("liquidity.ScoreBook")
)

// Private dependency tokens - internal to liquidity module
var (
	Adapters = di.NewToken[[]app.DEXAdapter]("liquidity:adapters")
)

// Helper functions for type-safe access
func GetQuoteAggregator(c di.ServiceRegistry) *app.QuoteAggregator {
	return di.GetToken(c, QuoteAggregator)
}

func GetScoreBook(c di.ServiceRegistry) *domain.ScoreBook {
	return di.GetToken(c, ScoreBook)
}

func GetAdapters(c di.ServiceRegistry) []app.DEXAdapter {
	return di.GetToken(c, Adapters)
}
